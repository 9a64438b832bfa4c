package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"smishguard/internal/models"
)

// FeedbackRepository handles the append-only user correction log. Records
// are never updated or deleted; the learning pipeline reads the full set on
// every run.
type FeedbackRepository interface {
	Append(ctx context.Context, fb *models.FeedbackRecord) error
	ListNotUseful(ctx context.Context) ([]models.FeedbackRecord, error)
	Count(ctx context.Context) (int, error)
}

type feedbackRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *sqlx.DB, logger *zap.Logger) FeedbackRepository {
	return &feedbackRepository{db: db, logger: logger}
}

func (r *feedbackRepository) Append(ctx context.Context, fb *models.FeedbackRecord) error {
	query := `
		INSERT INTO feedback (message, original_verdict, was_useful, user_comment, model_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		fb.Message, fb.OriginalVerdict, fb.WasUseful, fb.UserComment, fb.ModelUsed,
	).Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) ListNotUseful(ctx context.Context) ([]models.FeedbackRecord, error) {
	var records []models.FeedbackRecord
	query := `SELECT id, message, original_verdict, was_useful, user_comment, model_used, created_at
	          FROM feedback WHERE was_useful = FALSE ORDER BY id`
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return records, nil
}

func (r *feedbackRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM feedback`); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}
