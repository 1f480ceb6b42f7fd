package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// legacy file store scheme prefix on attachment URIs
const schemePrefix = "public://"

// NoMedia is the sentinel returned when a file cannot be resolved. Callers
// proceed without the image; a missing file is not fatal for its record.
const NoMedia int64 = 0

// Resolver ensures a source file exists in the target media store exactly
// once. The media mapping is keyed by the globally-unique file id, so a
// file shared by many posts uploads a single time.
type Resolver struct {
	svc    *mapping.Service
	client target.Client
	cfg    *config.MigrationConfig
	log    zerolog.Logger
}

// NewResolver creates a media resolver
func NewResolver(svc *mapping.Service, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *Resolver {
	return &Resolver{
		svc:    svc,
		client: client,
		cfg:    cfg,
		log:    log.With().Str("service", "media").Logger(),
	}
}

// Resolve returns the target media id for a source file, uploading it on
// first use. A mapping hit returns without any I/O.
func (r *Resolver) Resolve(ctx context.Context, file models.AttachedFile) (int64, error) {
	if targetID, ok := r.svc.TargetID(models.FamilyMedia, file.FileID); ok {
		return targetID, nil
	}

	if !r.cfg.MinImageDate.IsZero() && !file.Created.IsZero() && file.Created.Before(r.cfg.MinImageDate) {
		r.log.Info().
			Int64("file_id", file.FileID).
			Str("filename", file.Filename).
			Time("created", file.Created).
			Msg("File predates minimum image date, skipping")
		return NoMedia, nil
	}

	data, err := os.ReadFile(r.localPath(file))
	if err != nil {
		r.log.Warn().
			Int64("file_id", file.FileID).
			Str("filename", file.Filename).
			Err(err).
			Msg("Source file missing on disk, record proceeds without it")
		return NoMedia, nil
	}

	record, err := r.client.UploadMedia(ctx, file.Filename, file.MimeType, data)
	if err != nil {
		return NoMedia, fmt.Errorf("failed to upload file %d (%s): %w", file.FileID, file.Filename, err)
	}

	if err := r.svc.RecordMapping(ctx, models.FamilyMedia, file.FileID, record.ID, file.Filename); err != nil {
		return NoMedia, err
	}

	r.log.Info().
		Int64("file_id", file.FileID).
		Int64("media_id", record.ID).
		Str("filename", file.Filename).
		Msg("File uploaded")

	return record.ID, nil
}

// localPath maps the legacy URI onto the configured file store root.
func (r *Resolver) localPath(file models.AttachedFile) string {
	rel := strings.TrimPrefix(file.URI, schemePrefix)
	return filepath.Join(r.cfg.SourceFileRoot, filepath.FromSlash(rel))
}
