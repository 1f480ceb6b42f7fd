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

// NewNewsMigrator creates the migrator for news posts.
func NewNewsMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *PostMigrator {
	return newPostMigrator(svc, provider, client, meta, resolver, cfg, log, familyDesc{
		family:       models.FamilyNewsPost,
		postType:     target.TypePosts,
		categoryName: "News",
		transform:    basePost,
	})
}
