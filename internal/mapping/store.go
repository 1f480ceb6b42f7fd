package mapping

import (
	"context"
	"database/sql"
	"time"

	"github.com/cms-content-migrator/internal/database"
	"github.com/cms-content-migrator/internal/models"
)

// Store is the durable side of the id map. One row per (family, source_id);
// writing an existing key updates it.
type Store interface {
	Upsert(ctx context.Context, entry *models.MappingEntry) error
	Get(ctx context.Context, family models.Family, sourceID int64) (*models.MappingEntry, error)
	AllForFamily(ctx context.Context, family models.Family) ([]models.MappingEntry, error)
	CountForFamily(ctx context.Context, family models.Family) (int, error)
	MarkBodyRepaired(ctx context.Context, family models.Family, sourceID int64) error
	Delete(ctx context.Context, family models.Family, sourceID int64) error
	DeleteFamily(ctx context.Context, family models.Family) error
}

// pgStore is the Postgres-backed Store
type pgStore struct {
	db *database.DB
}

// NewStore creates a Postgres-backed mapping store
func NewStore(db *database.DB) Store {
	return &pgStore{db: db}
}

// Upsert inserts or updates a mapping entry by (family, source_id)
func (s *pgStore) Upsert(ctx context.Context, entry *models.MappingEntry) error {
	if entry.MigratedAt.IsZero() {
		entry.MigratedAt = time.Now()
	}
	query := `
		INSERT INTO mappings (family, source_id, target_id, display_name, migrated_at, body_repaired)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (family, source_id) DO UPDATE SET
			target_id = EXCLUDED.target_id,
			display_name = EXCLUDED.display_name,
			migrated_at = EXCLUDED.migrated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.Family, entry.SourceID, entry.TargetID, entry.DisplayName,
		entry.MigratedAt, entry.BodyRepaired,
	)
	return err
}

// Get retrieves one mapping entry, or nil when the source id is unmapped
func (s *pgStore) Get(ctx context.Context, family models.Family, sourceID int64) (*models.MappingEntry, error) {
	query := `
		SELECT family, source_id, target_id, display_name, migrated_at, body_repaired
		FROM mappings WHERE family = $1 AND source_id = $2
	`
	var entry models.MappingEntry
	err := s.db.QueryRowContext(ctx, query, family, sourceID).Scan(
		&entry.Family, &entry.SourceID, &entry.TargetID, &entry.DisplayName,
		&entry.MigratedAt, &entry.BodyRepaired,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// AllForFamily retrieves every mapping entry of one family
func (s *pgStore) AllForFamily(ctx context.Context, family models.Family) ([]models.MappingEntry, error) {
	query := `
		SELECT family, source_id, target_id, display_name, migrated_at, body_repaired
		FROM mappings WHERE family = $1 ORDER BY source_id
	`
	rows, err := s.db.QueryContext(ctx, query, family)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MappingEntry
	for rows.Next() {
		var entry models.MappingEntry
		err := rows.Scan(
			&entry.Family, &entry.SourceID, &entry.TargetID, &entry.DisplayName,
			&entry.MigratedAt, &entry.BodyRepaired,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountForFamily returns the number of mapped records in one family
func (s *pgStore) CountForFamily(ctx context.Context, family models.Family) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mappings WHERE family = $1", family).Scan(&count)
	return count, err
}

// MarkBodyRepaired flags a post-family entry as having its body references repaired
func (s *pgStore) MarkBodyRepaired(ctx context.Context, family models.Family, sourceID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE mappings SET body_repaired = TRUE WHERE family = $1 AND source_id = $2",
		family, sourceID)
	return err
}

// Delete removes one mapping entry
func (s *pgStore) Delete(ctx context.Context, family models.Family, sourceID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM mappings WHERE family = $1 AND source_id = $2", family, sourceID)
	return err
}

// DeleteFamily removes every mapping entry of one family
func (s *pgStore) DeleteFamily(ctx context.Context, family models.Family) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM mappings WHERE family = $1", family)
	return err
}
