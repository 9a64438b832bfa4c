package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"smishguard/internal/classifier"
	"smishguard/internal/metrics"
	"smishguard/internal/models"
	"smishguard/internal/repository"
	"smishguard/internal/signals"
	"smishguard/internal/verdict"
)

// ErrMalformedFeedback is returned for structurally invalid feedback that
// must never reach the feedback store.
var ErrMalformedFeedback = errors.New("malformed feedback payload")

// AnalysisService is the serving path: classify messages and record user
// feedback.
type AnalysisService interface {
	Classify(ctx context.Context, message string, family models.ModelFamily) (*verdict.Result, error)
	SubmitFeedback(ctx context.Context, fb *models.FeedbackRecord) error
}

type analysisService struct {
	adapter  *classifier.Adapter
	feedback repository.FeedbackRepository
	logger   *zap.Logger
}

// NewAnalysisService creates the serving-path service.
func NewAnalysisService(adapter *classifier.Adapter, feedback repository.FeedbackRepository, logger *zap.Logger) AnalysisService {
	return &analysisService{adapter: adapter, feedback: feedback, logger: logger}
}

func (s *analysisService) Classify(ctx context.Context, message string, family models.ModelFamily) (*verdict.Result, error) {
	started := time.Now()

	pred, err := s.adapter.Predict(message, family)
	if err != nil {
		return nil, err
	}

	detected := signals.Extract(message)
	result := verdict.Reconcile(pred, detected)

	metrics.ClassifyDuration.Observe(time.Since(started).Seconds())
	metrics.ClassificationsTotal.WithLabelValues(
		result.Family.String(), result.Verdict.Label.String()).Inc()
	if result.Overridden {
		metrics.OverridesTotal.WithLabelValues(result.OverrideReason).Inc()
	}

	s.logger.Info("Classified message",
		zap.String("verdict", result.Verdict.Label.String()),
		zap.Float64("confidence", result.Verdict.Confidence),
		zap.String("family", result.Family.String()),
		zap.Int("signals", len(detected)),
		zap.Bool("overridden", result.Overridden))
	return &result, nil
}

func (s *analysisService) SubmitFeedback(ctx context.Context, fb *models.FeedbackRecord) error {
	if fb.Message == "" {
		return fmt.Errorf("%w: empty message", ErrMalformedFeedback)
	}
	if fb.ModelUsed != "" {
		if _, err := models.ParseFamily(fb.ModelUsed); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
		}
	}

	if err := s.feedback.Append(ctx, fb); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues(strconv.FormatBool(fb.WasUseful)).Inc()
	s.logger.Info("Recorded feedback",
		zap.Int64("id", fb.ID),
		zap.Bool("was_useful", fb.WasUseful),
		zap.String("original_verdict", fb.OriginalVerdict.String()))
	return nil
}
