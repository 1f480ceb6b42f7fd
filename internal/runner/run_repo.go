package runner

import (
	"context"
	"database/sql"

	"github.com/cms-content-migrator/internal/database"
	"github.com/cms-content-migrator/internal/models"
)

// RunRepository persists the migration run ledger
type RunRepository interface {
	Create(ctx context.Context, run *models.MigrationRun) error
	Update(ctx context.Context, run *models.MigrationRun) error
	GetByID(ctx context.Context, id string) (*models.MigrationRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.MigrationRun, error)
}

// runRepo is the concrete implementation of RunRepository
type runRepo struct {
	db *database.DB
}

// NewRunRepo creates a new run repository
func NewRunRepo(db *database.DB) RunRepository {
	return &runRepo{db: db}
}

// Create inserts a new run row
func (r *runRepo) Create(ctx context.Context, run *models.MigrationRun) error {
	query := `
		INSERT INTO migration_runs (id, kind, family, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Kind, run.Family, run.Status, run.CreatedAt,
	)
	return err
}

// Update writes status, counters and timestamps back
func (r *runRepo) Update(ctx context.Context, run *models.MigrationRun) error {
	query := `
		UPDATE migration_runs SET
			status = $2, total_records = $3, processed_count = $4,
			migrated_count = $5, skipped_count = $6, error_count = $7,
			message = $8, duration_ms = $9, started_at = $10, completed_at = $11
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.Total, run.Processed,
		run.Migrated, run.Skipped, run.Errors,
		run.Message, run.DurationMs, run.StartedAt, run.CompletedAt,
	)
	return err
}

// GetByID retrieves a run by ID
func (r *runRepo) GetByID(ctx context.Context, id string) (*models.MigrationRun, error) {
	query := `
		SELECT id, kind, family, status, total_records, processed_count,
			migrated_count, skipped_count, error_count, message, duration_ms,
			created_at, started_at, completed_at
		FROM migration_runs WHERE id = $1
	`
	var run models.MigrationRun
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Kind, &run.Family, &run.Status, &run.Total, &run.Processed,
		&run.Migrated, &run.Skipped, &run.Errors, &run.Message, &run.DurationMs,
		&run.CreatedAt, &run.StartedAt, &run.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent retrieves the most recent runs
func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*models.MigrationRun, error) {
	query := `
		SELECT id, kind, family, status, total_records, processed_count,
			migrated_count, skipped_count, error_count, message, duration_ms,
			created_at, started_at, completed_at
		FROM migration_runs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.MigrationRun
	for rows.Next() {
		var run models.MigrationRun
		err := rows.Scan(
			&run.ID, &run.Kind, &run.Family, &run.Status, &run.Total, &run.Processed,
			&run.Migrated, &run.Skipped, &run.Errors, &run.Message, &run.DurationMs,
			&run.CreatedAt, &run.StartedAt, &run.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
