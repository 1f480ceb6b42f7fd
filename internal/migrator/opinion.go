package migrator

import (
	"context"
	"strconv"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// NewOpinionMigrator creates the migrator for opinion posts. The source
// author id is preserved as a byline custom field because opinion pieces
// keep their byline even when the account falls back to the default author.
func NewOpinionMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *PostMigrator {
	return newPostMigrator(svc, provider, client, meta, resolver, cfg, log, familyDesc{
		family:       models.FamilyOpinionPost,
		postType:     target.TypePosts,
		categoryName: "Opinion",
		transform:    basePost,
		afterCreate: func(ctx context.Context, m *PostMigrator, rec *models.SourceRecord, created *models.TargetRecord) error {
			return m.meta.SetCustomField(ctx, created.ID, "_byline_source_author",
				strconv.FormatInt(rec.AuthorID, 10))
		},
	})
}
