package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smishguard/internal/metrics"
	"smishguard/internal/models"
	"smishguard/internal/repository"
	"smishguard/internal/textclf"
)

// ErrModelUnavailable is returned when no active generation can serve a
// prediction for any family.
var ErrModelUnavailable = errors.New("no active model generation available")

// Prediction is the statistical classifier output for one message.
type Prediction struct {
	Label        models.Label
	Confidence   float64
	Family       models.ModelFamily
	GenerationID uuid.UUID
}

// generation is an immutable serving snapshot. The vectorizer and
// classifier inside the bundle always belong to the same generation.
type generation struct {
	id     uuid.UUID
	family models.ModelFamily
	bundle *textclf.Bundle
}

// Adapter serves predictions from the active generation of each family.
// Snapshots are exchanged with atomic pointer swaps, so concurrent requests
// always see a consistent vectorizer+classifier pair while a publish is in
// flight.
type Adapter struct {
	registry  repository.ModelRegistry
	logger    *zap.Logger
	snapshots [models.NumFamilies]atomic.Pointer[generation]
}

// NewAdapter creates an adapter over the given registry. Call Reload to
// populate the serving snapshots.
func NewAdapter(registry repository.ModelRegistry, logger *zap.Logger) *Adapter {
	return &Adapter{registry: registry, logger: logger}
}

// Reload fetches the active generation of every family from the registry
// and swaps it into the serving path. A family with no active artifact
// clears its snapshot; a family whose bundle fails to decode keeps serving
// its previous snapshot.
func (a *Adapter) Reload(ctx context.Context) error {
	var loaded int
	for _, family := range models.AllFamilies() {
		art, err := a.registry.GetActive(ctx, family)
		if errors.Is(err, repository.ErrArtifactNotFound) {
			a.snapshots[family].Store(nil)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load active %s generation: %w", family, err)
		}

		bundle, err := textclf.DecodeBundle(art.Bundle)
		if err != nil {
			a.logger.Error("Failed to decode model bundle, keeping previous generation",
				zap.String("family", family.String()),
				zap.String("generation_id", art.GenerationID.String()),
				zap.Error(err))
			continue
		}

		a.snapshots[family].Store(&generation{
			id:     art.GenerationID,
			family: family,
			bundle: bundle,
		})
		metrics.ActiveModelF1.WithLabelValues(family.String()).Set(art.F1Score)
		loaded++

		a.logger.Info("Loaded active model generation",
			zap.String("family", family.String()),
			zap.String("generation_id", art.GenerationID.String()),
			zap.Float64("f1_score", art.F1Score))
	}

	if loaded == 0 {
		a.logger.Warn("No active model generations found; classification is unavailable until a pipeline run publishes one")
	}
	return nil
}

// Ready reports whether at least one family can serve predictions.
func (a *Adapter) Ready() bool {
	for _, family := range models.AllFamilies() {
		if a.snapshots[family].Load() != nil {
			return true
		}
	}
	return false
}

// Predict classifies a message with the requested family. When that family
// has no active generation the adapter falls back to the other family and
// reports it in the returned prediction; when neither family is available
// it returns ErrModelUnavailable.
func (a *Adapter) Predict(text string, family models.ModelFamily) (Prediction, error) {
	snap := a.snapshots[family].Load()
	if snap == nil {
		fallback := family.Other()
		snap = a.snapshots[fallback].Load()
		if snap == nil {
			return Prediction{}, ErrModelUnavailable
		}
		a.logger.Debug("Requested family unavailable, serving with fallback",
			zap.String("requested", family.String()),
			zap.String("served", fallback.String()))
	}

	label, confidence := snap.bundle.Predict(text)
	return Prediction{
		Label:        models.Label(label),
		Confidence:   confidence,
		Family:       snap.family,
		GenerationID: snap.id,
	}, nil
}
