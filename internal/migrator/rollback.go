package migrator

import (
	"context"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// Rollback reverses a family's migration for iterative testing: delete the
// target record, then the mapping row. Best-effort cleanup, not a
// transaction; individual failures are logged and the batch continues.
type Rollback struct {
	store  mapping.Store
	client target.Client
	cfg    *config.MigrationConfig
	log    zerolog.Logger
}

// NewRollback creates the rollback path
func NewRollback(store mapping.Store, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *Rollback {
	return &Rollback{
		store:  store,
		client: client,
		cfg:    cfg,
		log:    log.With().Str("service", "rollback").Logger(),
	}
}

// Family deletes every target record of the family and its mapping rows.
// A failed target delete keeps the mapping row, so a retry can find it.
func (r *Rollback) Family(ctx context.Context, family models.Family) (models.RunCounts, error) {
	log := r.log.With().Str("family", string(family)).Logger()

	entries, err := r.store.AllForFamily(ctx, family)
	if err != nil {
		return models.RunCounts{}, err
	}

	counts := models.RunCounts{Total: len(entries)}
	for _, entry := range entries {
		if ctx.Err() != nil {
			log.Info().Int("processed", counts.Processed).Msg("Rollback cancelled")
			return counts, nil
		}
		counts.Processed++

		if err := r.deleteTarget(ctx, family, entry.TargetID); err != nil {
			counts.Errors++
			log.Warn().Err(err).
				Int64("source_id", entry.SourceID).
				Int64("target_id", entry.TargetID).
				Msg("Failed to delete target record, keeping mapping")
			continue
		}
		if err := r.store.Delete(ctx, family, entry.SourceID); err != nil {
			counts.Errors++
			log.Warn().Err(err).Int64("source_id", entry.SourceID).
				Msg("Failed to delete mapping row")
			continue
		}
		counts.Migrated++
	}

	log.Info().
		Int("processed", counts.Processed).
		Int("removed", counts.Migrated).
		Int("errors", counts.Errors).
		Msg("Rollback completed")
	return counts, nil
}

// deleteTarget force-deletes the target record, bypassing the trash.
func (r *Rollback) deleteTarget(ctx context.Context, family models.Family, targetID int64) error {
	switch family {
	case models.FamilyUser:
		return r.client.DeleteUser(ctx, targetID, r.cfg.DefaultAuthorID)
	case models.FamilyCategory:
		return r.client.DeleteTerm(ctx, target.TaxonomyCategories, targetID)
	case models.FamilyTag:
		return r.client.DeleteTerm(ctx, target.TaxonomyTags, targetID)
	case models.FamilyRegion:
		return r.client.DeleteTerm(ctx, target.TaxonomyRegions, targetID)
	case models.FamilyMedia:
		return r.client.DeleteMedia(ctx, targetID)
	case models.FamilyPage:
		return r.client.DeletePost(ctx, target.TypePages, targetID, true)
	default:
		return r.client.DeletePost(ctx, target.TypePosts, targetID, true)
	}
}
