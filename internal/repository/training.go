package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"smishguard/internal/models"
)

// TrainingRecordRepository handles the append-only training corpus.
type TrainingRecordRepository interface {
	Append(ctx context.Context, records []models.TrainingRecord) error
	ListByOrigin(ctx context.Context, origin models.Origin) ([]models.TrainingRecord, error)
	CountByOrigin(ctx context.Context, origin models.Origin) (int, error)
	Stats(ctx context.Context) (*models.DatasetStats, error)
}

type trainingRecordRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTrainingRecordRepository creates a new training record repository.
func NewTrainingRecordRepository(db *sqlx.DB, logger *zap.Logger) TrainingRecordRepository {
	return &trainingRecordRepository{db: db, logger: logger}
}

func (r *trainingRecordRepository) Append(ctx context.Context, records []models.TrainingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO training_records (text, label, origin) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Text, rec.Label, string(rec.Origin)); err != nil {
			return fmt.Errorf("failed to insert training record: %w", err)
		}
	}
	return tx.Commit()
}

func (r *trainingRecordRepository) ListByOrigin(ctx context.Context, origin models.Origin) ([]models.TrainingRecord, error) {
	var records []models.TrainingRecord
	query := `SELECT id, text, label, origin, created_at
	          FROM training_records WHERE origin = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &records, query, string(origin)); err != nil {
		return nil, fmt.Errorf("failed to list training records: %w", err)
	}
	return records, nil
}

func (r *trainingRecordRepository) CountByOrigin(ctx context.Context, origin models.Origin) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM training_records WHERE origin = $1`
	if err := r.db.GetContext(ctx, &count, query, string(origin)); err != nil {
		return 0, fmt.Errorf("failed to count training records: %w", err)
	}
	return count, nil
}

func (r *trainingRecordRepository) Stats(ctx context.Context) (*models.DatasetStats, error) {
	stats := &models.DatasetStats{
		ByOrigin: make(map[string]int),
		ByLabel:  make(map[string]int),
	}

	if err := r.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM training_records`); err != nil {
		return nil, fmt.Errorf("failed to count training records: %w", err)
	}

	originRows, err := r.db.QueryxContext(ctx,
		`SELECT origin, COUNT(*) FROM training_records GROUP BY origin`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by origin: %w", err)
	}
	defer originRows.Close()
	for originRows.Next() {
		var origin string
		var count int
		if err := originRows.Scan(&origin, &count); err != nil {
			return nil, err
		}
		stats.ByOrigin[origin] = count
	}
	if err := originRows.Err(); err != nil {
		return nil, err
	}

	labelRows, err := r.db.QueryxContext(ctx,
		`SELECT label, COUNT(*) FROM training_records GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by label: %w", err)
	}
	defer labelRows.Close()
	for labelRows.Next() {
		var label models.Label
		var count int
		if err := labelRows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.ByLabel[label.String()] = count
	}
	return stats, labelRows.Err()
}
