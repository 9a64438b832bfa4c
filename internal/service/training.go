package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smishguard/internal/classifier"
	"smishguard/internal/metrics"
	"smishguard/internal/notifier"
	"smishguard/internal/pipeline"
)

// TrainingService orchestrates retraining: it runs the pipeline, swaps the
// new generations into the serving path, and notifies operators.
type TrainingService struct {
	pipeline *pipeline.Pipeline
	adapter  *classifier.Adapter
	notifier *notifier.Telegram
	logger   *zap.Logger
}

// NewTrainingService creates the retraining orchestrator. notifier may be
// nil when operator notifications are disabled.
func NewTrainingService(
	p *pipeline.Pipeline,
	adapter *classifier.Adapter,
	n *notifier.Telegram,
	logger *zap.Logger,
) *TrainingService {
	return &TrainingService{pipeline: p, adapter: adapter, notifier: n, logger: logger}
}

// Retrain runs one pipeline pass. On success the freshly published
// generations are loaded into the serving snapshots before returning, so
// the caller's next classification already uses them.
func (s *TrainingService) Retrain(ctx context.Context) (*pipeline.Summary, error) {
	summary, err := s.pipeline.Run(ctx)
	if err != nil {
		metrics.RetrainRunsTotal.WithLabelValues("failure").Inc()
		s.logger.Error("Retraining failed, previous generations remain in service", zap.Error(err))
		s.notifier.RetrainFailed(err)
		return nil, err
	}

	if err := s.adapter.Reload(ctx); err != nil {
		// The publish succeeded; serving will pick the generation up on
		// the next reload. Report the run as successful.
		s.logger.Error("Failed to reload serving snapshots after publish", zap.Error(err))
	}

	metrics.RetrainRunsTotal.WithLabelValues("success").Inc()
	s.notifier.RetrainCompleted(summary)
	return summary, nil
}

// RunPeriodic retrains on a fixed interval until the context is canceled.
// Used when the deployment prefers a built-in schedule over an external
// cron hitting the retrain endpoint.
func (s *TrainingService) RunPeriodic(ctx context.Context, interval time.Duration) {
	s.logger.Info("Periodic retraining enabled", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Periodic retraining stopped")
			return
		case <-ticker.C:
			if _, err := s.Retrain(ctx); err != nil {
				s.logger.Warn("Scheduled retraining run failed", zap.Error(err))
			}
		}
	}
}
