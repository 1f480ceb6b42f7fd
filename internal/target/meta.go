package target

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cms-content-migrator/internal/database"
	"github.com/rs/zerolog"
)

// Meta writes the handful of target-side rows the content API has no
// endpoint for: thumbnail assignment and custom fields go straight into the
// target's relational store. This dual-channel access (REST plus direct
// table writes) is required; equivalent API endpoints do not exist.
type Meta interface {
	SetThumbnail(ctx context.Context, postID, mediaID int64) error
	SetCustomField(ctx context.Context, postID int64, key, value string) error
}

// metaWriter is the Postgres-backed Meta
type metaWriter struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMeta creates a direct table writer on the target store
func NewMeta(db *database.DB, log zerolog.Logger) Meta {
	return &metaWriter{
		db:  db,
		log: log.With().Str("component", "target-meta").Logger(),
	}
}

// SetThumbnail assigns a media item as the post's cover image.
func (m *metaWriter) SetThumbnail(ctx context.Context, postID, mediaID int64) error {
	return m.SetCustomField(ctx, postID, "_thumbnail_id", strconv.FormatInt(mediaID, 10))
}

// SetCustomField upserts one postmeta row. The meta table has no unique
// key on (post_id, meta_key), so this is update-then-insert.
func (m *metaWriter) SetCustomField(ctx context.Context, postID int64, key, value string) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE wp_postmeta SET meta_value = $1 WHERE post_id = $2 AND meta_key = $3",
		value, postID, key)
	if err != nil {
		return fmt.Errorf("failed to update meta %s for post %d: %w", key, postID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, err = m.db.ExecContext(ctx,
		"INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES ($1, $2, $3)",
		postID, key, value)
	if err != nil {
		return fmt.Errorf("failed to insert meta %s for post %d: %w", key, postID, err)
	}
	return nil
}
