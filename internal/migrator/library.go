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

// NewLibraryMigrator creates the migrator for library posts. Every library
// post carries the Library category; attached documents are uploaded up
// front and linked through a custom field so the library listing can find
// them without a body scan.
func NewLibraryMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger) *PostMigrator {
	return newPostMigrator(svc, provider, client, meta, resolver, cfg, log, familyDesc{
		family:       models.FamilyLibraryPost,
		postType:     target.TypePosts,
		categoryName: "Library",
		transform:    basePost,
		afterCreate:  attachLibraryDocuments,
	})
}

// attachLibraryDocuments resolves each PDF or document attachment and
// records the resulting media ids on the post.
func attachLibraryDocuments(ctx context.Context, m *PostMigrator, rec *models.SourceRecord, created *models.TargetRecord) error {
	var ids []string
	for _, file := range rec.Files {
		switch file.Type() {
		case models.FileTypePDF, models.FileTypeDocument:
		default:
			continue
		}
		mediaID, err := m.resolver.Resolve(ctx, file)
		if err != nil {
			m.log.Warn().Err(err).
				Int64("file_id", file.FileID).
				Str("filename", file.Filename).
				Msg("Failed to resolve library document")
			continue
		}
		if mediaID == media.NoMedia {
			continue
		}
		ids = append(ids, strconv.FormatInt(mediaID, 10))
	}

	if len(ids) == 0 {
		return nil
	}
	return m.meta.SetCustomField(ctx, created.ID, "_library_document_ids", strings.Join(ids, ","))
}
