package migrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// NewHubMigrator creates the migrator for hub posts. Hubs are regional
// landing content; their region terms are translated through the region
// mapping and written as a custom field the theme reads.
func NewHubMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *PostMigrator {
	return newPostMigrator(svc, provider, client, meta, resolver, cfg, log, familyDesc{
		family:       models.FamilyHubPost,
		postType:     target.TypePosts,
		categoryName: "Hubs",
		transform:    basePost,
		afterCreate:  attachHubRegions,
	})
}

func attachHubRegions(ctx context.Context, m *PostMigrator, rec *models.SourceRecord, created *models.TargetRecord) error {
	regionIDs := m.svc.TranslateIDs(models.FamilyRegion, rec.RegionIDs)
	if len(regionIDs) == 0 {
		return nil
	}
	parts := make([]string, len(regionIDs))
	for i, id := range regionIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return m.meta.SetCustomField(ctx, created.ID, "_hub_region_ids", strings.Join(parts, ","))
}
