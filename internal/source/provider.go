package source

import (
	"context"

	"github.com/cms-content-migrator/internal/models"
)

// Provider is the read-only boundary to the legacy CMS. Connection details,
// schema specifics and raw SQL live behind it; the migrators only ever see
// grouped, typed records.
type Provider interface {
	// Records returns all source records of one post family, newest first.
	Records(ctx context.Context, family models.Family) ([]models.SourceRecord, error)

	// Users returns all legacy accounts referenced by content.
	Users(ctx context.Context) ([]models.SourceUser, error)

	// TermTree returns the parent/weight rows of one vocabulary.
	TermTree(ctx context.Context, vocabulary string) ([]models.TermNode, error)

	// FilesFor returns the files attached to one source record, with the
	// featured flag already resolved.
	FilesFor(ctx context.Context, recordID int64) ([]models.AttachedFile, error)
}

// Vocabulary names the migrators ask the provider for.
const (
	VocabularyCategory = "category"
	VocabularyTag      = "tag"
	VocabularyRegion   = "region"
)
