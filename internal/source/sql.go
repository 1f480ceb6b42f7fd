package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cms-content-migrator/internal/database"
	"github.com/cms-content-migrator/internal/models"
	"github.com/rs/zerolog"
)

// sqlProvider reads the legacy content through a fixed set of denormalized
// views the operator prepares over the actual legacy schema:
//
//	source_<family>_rows  one row per (record, attribute) join result
//	source_users          id, name, email, created
//	source_terms          id, name, parent_id, weight, vocabulary
//	source_files          record_id + the attached-file columns
//
// The views isolate the migrator from the legacy table layout; only their
// column contract is fixed here.
type sqlProvider struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLProvider creates a provider over the legacy view set
func NewSQLProvider(db *database.DB, log zerolog.Logger) Provider {
	return &sqlProvider{
		db:  db,
		log: log.With().Str("component", "source").Logger(),
	}
}

// Records fetches one family's denormalized rows newest-first and groups
// them into records with deduplicated attribute sets.
func (p *sqlProvider) Records(ctx context.Context, family models.Family) ([]models.SourceRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, title, kicker, summary, body, author_id, created, changed, published,
			category_id, tag_id, region_id,
			file_id, filename, uri, mime_type, file_size, is_featured,
			file_alt, file_title, width, height, file_created
		FROM source_%s_rows ORDER BY created DESC, id DESC
	`, family)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s rows: %w", family, err)
	}
	defer rows.Close()

	var raw []RawRow
	for rows.Next() {
		var (
			r          RawRow
			kicker     sql.NullString
			summary    sql.NullString
			categoryID sql.NullInt64
			tagID      sql.NullInt64
			regionID   sql.NullInt64
			fileID     sql.NullInt64
			filename   sql.NullString
			uri        sql.NullString
			mimeType   sql.NullString
			fileSize   sql.NullInt64
			isFeatured sql.NullBool
			fileAlt    sql.NullString
			fileTitle  sql.NullString
			width      sql.NullInt64
			height     sql.NullInt64
			fileCreate sql.NullTime
		)
		err := rows.Scan(
			&r.Record.ID, &r.Record.Title, &kicker, &summary, &r.Record.Body,
			&r.Record.AuthorID, &r.Record.Created, &r.Record.Changed, &r.Record.Published,
			&categoryID, &tagID, &regionID,
			&fileID, &filename, &uri, &mimeType, &fileSize, &isFeatured,
			&fileAlt, &fileTitle, &width, &height, &fileCreate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", family, err)
		}
		r.Record.Kicker = kicker.String
		r.Record.Summary = summary.String
		r.CategoryID = categoryID.Int64
		r.TagID = tagID.Int64
		r.RegionID = regionID.Int64
		if fileID.Valid {
			r.File = &models.AttachedFile{
				FileID:     fileID.Int64,
				Filename:   filename.String,
				URI:        uri.String,
				MimeType:   mimeType.String,
				Size:       fileSize.Int64,
				IsFeatured: isFeatured.Bool,
				Alt:        fileAlt.String,
				Title:      fileTitle.String,
				Width:      int(width.Int64),
				Height:     int(height.Int64),
				Created:    fileCreate.Time,
			}
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := GroupRows(raw)
	p.log.Debug().
		Str("family", string(family)).
		Int("rows", len(raw)).
		Int("records", len(records)).
		Msg("Source records grouped")
	return records, nil
}

// Users fetches all legacy accounts.
func (p *sqlProvider) Users(ctx context.Context) ([]models.SourceUser, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, name, email, created FROM source_users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.SourceUser
	for rows.Next() {
		var u models.SourceUser
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.Created); err != nil {
			return nil, err
		}
		u.Email = email.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// TermTree fetches one vocabulary's parent/weight rows.
func (p *sqlProvider) TermTree(ctx context.Context, vocabulary string) ([]models.TermNode, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, name, parent_id, weight FROM source_terms WHERE vocabulary = $1 ORDER BY weight, name",
		vocabulary)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s terms: %w", vocabulary, err)
	}
	defer rows.Close()

	var nodes []models.TermNode
	for rows.Next() {
		var n models.TermNode
		if err := rows.Scan(&n.ID, &n.Name, &n.ParentID, &n.Weight); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// FilesFor fetches the files attached to one record.
func (p *sqlProvider) FilesFor(ctx context.Context, recordID int64) ([]models.AttachedFile, error) {
	query := `
		SELECT file_id, filename, uri, mime_type, file_size, is_featured,
			file_alt, file_title, width, height, file_created
		FROM source_files WHERE record_id = $1 ORDER BY file_id
	`
	rows, err := p.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files for record %d: %w", recordID, err)
	}
	defer rows.Close()

	var files []models.AttachedFile
	seen := make(map[int64]bool)
	for rows.Next() {
		var (
			f          models.AttachedFile
			fileAlt    sql.NullString
			fileTitle  sql.NullString
			width      sql.NullInt64
			height     sql.NullInt64
			fileCreate sql.NullTime
		)
		err := rows.Scan(&f.FileID, &f.Filename, &f.URI, &f.MimeType, &f.Size,
			&f.IsFeatured, &fileAlt, &fileTitle, &width, &height, &fileCreate)
		if err != nil {
			return nil, err
		}
		if seen[f.FileID] {
			continue
		}
		seen[f.FileID] = true
		f.Alt = fileAlt.String
		f.Title = fileTitle.String
		f.Width = int(width.Int64)
		f.Height = int(height.Int64)
		f.Created = fileCreate.Time
		files = append(files, f)
	}
	return files, rows.Err()
}
