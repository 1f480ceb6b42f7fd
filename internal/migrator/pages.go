package migrator

import (
	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// NewPageMigrator creates the migrator for generic pages. Pages go to the
// pages endpoint and take no taxonomy terms.
func NewPageMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *PostMigrator {
	return newPostMigrator(svc, provider, client, meta, resolver, cfg, log, familyDesc{
		family:    models.FamilyPage,
		postType:  target.TypePages,
		transform: pagePost,
	})
}

func pagePost(m *PostMigrator, rec *models.SourceRecord, defaultCategory int64) *models.TargetPost {
	post := basePost(m, rec, 0)
	post.Categories = nil
	post.Tags = nil
	return post
}
