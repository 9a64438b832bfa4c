package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"smishguard/internal/models"
)

// ErrArtifactNotFound is returned when a family has no active generation.
var ErrArtifactNotFound = errors.New("model artifact not found")

// ModelRegistry is the versioned store of classifier generations. For each
// family at most one artifact is active at any instant; Publish flips the
// previous active artifact off and the new one on inside one transaction,
// so readers never observe zero or two active generations.
type ModelRegistry interface {
	// Publish stores the given artifacts as the new active generation of
	// their families. All artifacts are published in a single transaction:
	// either every family flips to its new generation or none does.
	Publish(ctx context.Context, artifacts []*models.ModelArtifact) error

	// GetActive returns the currently active artifact of a family, ties
	// broken by the most recent creation timestamp.
	GetActive(ctx context.Context, family models.ModelFamily) (*models.ModelArtifact, error)

	// ListGenerations returns all generations of a family, newest first,
	// without their bundle payloads.
	ListGenerations(ctx context.Context, family models.ModelFamily) ([]*models.ModelArtifact, error)
}

type modelRegistry struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewModelRegistry creates a Postgres-backed model registry.
func NewModelRegistry(db *sqlx.DB, logger *zap.Logger) ModelRegistry {
	return &modelRegistry{db: db, logger: logger}
}

func (r *modelRegistry) Publish(ctx context.Context, artifacts []*models.ModelArtifact) error {
	if len(artifacts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin publish transaction: %w", err)
	}
	defer tx.Rollback()

	for _, art := range artifacts {
		if _, err := tx.ExecContext(ctx,
			`UPDATE model_artifacts SET is_active = FALSE WHERE family = $1 AND is_active`,
			art.Family,
		); err != nil {
			return fmt.Errorf("failed to deactivate previous %s generation: %w", art.Family, err)
		}

		query := `
			INSERT INTO model_artifacts (
				generation_id, family, f1_score, precision_score, recall_score,
				accuracy, training_set_size, feedback_count,
				vectorizer_feature_cap, is_active, bundle
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10)
			RETURNING id, created_at
		`
		err := tx.QueryRowxContext(ctx, query,
			art.GenerationID, art.Family, art.F1Score, art.Precision, art.Recall,
			art.Accuracy, art.TrainingSetSize, art.FeedbackCount,
			art.VectorizerFeatureCap, art.Bundle,
		).Scan(&art.ID, &art.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert %s artifact: %w", art.Family, err)
		}
		art.IsActive = true
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish transaction: %w", err)
	}

	for _, art := range artifacts {
		r.logger.Info("Published model generation",
			zap.String("family", art.Family.String()),
			zap.String("generation_id", art.GenerationID.String()),
			zap.Float64("f1_score", art.F1Score))
	}
	return nil
}

func (r *modelRegistry) GetActive(ctx context.Context, family models.ModelFamily) (*models.ModelArtifact, error) {
	var art models.ModelArtifact
	query := `
		SELECT id, generation_id, family, f1_score, precision_score, recall_score,
		       accuracy, training_set_size, feedback_count, vectorizer_feature_cap,
		       is_active, bundle, created_at
		FROM model_artifacts
		WHERE family = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &art, query, family)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active %s artifact: %w", family, err)
	}
	return &art, nil
}

func (r *modelRegistry) ListGenerations(ctx context.Context, family models.ModelFamily) ([]*models.ModelArtifact, error) {
	var artifacts []*models.ModelArtifact
	query := `
		SELECT id, generation_id, family, f1_score, precision_score, recall_score,
		       accuracy, training_set_size, feedback_count, vectorizer_feature_cap,
		       is_active, created_at
		FROM model_artifacts
		WHERE family = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &artifacts, query, family); err != nil {
		return nil, fmt.Errorf("failed to list %s generations: %w", family, err)
	}
	return artifacts, nil
}
