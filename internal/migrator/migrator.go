package migrator

import (
	"context"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// Set holds one migrator per content family plus the rollback path.
type Set struct {
	Users      *UserMigrator
	Categories *TermMigrator
	Regions    *TermMigrator
	Tags       *TagMigrator

	Library *PostMigrator
	Pages   *PostMigrator
	Opinion *PostMigrator
	Hubs    *PostMigrator
	News    *PostMigrator

	Rollback *Rollback
}

// New wires every migrator with the shared collaborators
func New(svc *mapping.Service, store mapping.Store, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *Set {
	return &Set{
		Users:      NewUserMigrator(svc, provider, client, cfg, log),
		Categories: NewCategoryMigrator(svc, provider, client, cfg, log),
		Regions:    NewRegionMigrator(svc, provider, client, cfg, log),
		Tags:       NewTagMigrator(svc, provider, client, cfg, log),
		Library:    NewLibraryMigrator(svc, provider, client, meta, resolver, cfg, log),
		Pages:      NewPageMigrator(svc, provider, client, meta, resolver, cfg, log),
		Opinion:    NewOpinionMigrator(svc, provider, client, meta, resolver, cfg, log),
		Hubs:       NewHubMigrator(svc, provider, client, meta, resolver, cfg, log),
		News:       NewNewsMigrator(svc, provider, client, meta, resolver, cfg, log),
		Rollback:   NewRollback(store, client, cfg, log),
	}
}

// FamilyMigrator is implemented by every per-family migrator.
type FamilyMigrator interface {
	Run(ctx context.Context) (models.RunCounts, error)
}

// ForFamily returns the migrator for one family. Media has none: files
// reach the target through the resolver while posts migrate and repair.
func (s *Set) ForFamily(family models.Family) (FamilyMigrator, bool) {
	switch family {
	case models.FamilyUser:
		return s.Users, true
	case models.FamilyCategory:
		return s.Categories, true
	case models.FamilyRegion:
		return s.Regions, true
	case models.FamilyTag:
		return s.Tags, true
	case models.FamilyLibraryPost:
		return s.Library, true
	case models.FamilyPage:
		return s.Pages, true
	case models.FamilyOpinionPost:
		return s.Opinion, true
	case models.FamilyHubPost:
		return s.Hubs, true
	case models.FamilyNewsPost:
		return s.News, true
	default:
		return nil, false
	}
}

// logProgress emits the periodic "processed/total (pct%)" line.
func logProgress(log zerolog.Logger, every, processed, total int) {
	if every > 0 && total > 0 && processed%every == 0 {
		log.Info().Msgf("Processed %d/%d (%.0f%%)",
			processed, total, float64(processed)/float64(total)*100)
	}
}
