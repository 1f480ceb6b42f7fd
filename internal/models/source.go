package models

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType classifies an attached file by its mime type.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypePDF      FileType = "pdf"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

// AttachedFile is one file used by a source record. FileID is globally
// unique in the legacy file store, so the media mapping is keyed by it no
// matter which post referenced the file.
type AttachedFile struct {
	FileID     int64     `json:"file_id"`
	Filename   string    `json:"filename"`
	URI        string    `json:"uri"` // legacy scheme path, e.g. public://images/photo.jpg
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	IsFeatured bool      `json:"is_featured"`
	Alt        string    `json:"alt,omitempty"`
	Title      string    `json:"title,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Created    time.Time `json:"created,omitempty"`
}

// Type classifies the file from its mime type.
func (f AttachedFile) Type() FileType {
	switch {
	case strings.HasPrefix(f.MimeType, "image/"):
		return FileTypeImage
	case f.MimeType == "application/pdf":
		return FileTypePDF
	case strings.Contains(f.MimeType, "msword"),
		strings.Contains(f.MimeType, "officedocument"),
		strings.Contains(f.MimeType, "opendocument"):
		return FileTypeDocument
	default:
		return FileTypeOther
	}
}

// AltText returns the preferred alt text: explicit alt, then title, then
// the filename without its extension.
func (f AttachedFile) AltText() string {
	if f.Alt != "" {
		return f.Alt
	}
	if f.Title != "" {
		return f.Title
	}
	return strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename))
}

// SourceRecord is a denormalized projection of one legacy entity: the core
// columns plus the repeated attributes collected into deduplicated sets.
type SourceRecord struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Kicker    string    `json:"kicker,omitempty"` // short lead-in line above the title
	Summary   string    `json:"summary,omitempty"`
	Body      string    `json:"body"`
	AuthorID  int64     `json:"author_id"`
	Created   time.Time `json:"created"`
	Changed   time.Time `json:"changed"`
	Published bool      `json:"published"`

	CategoryIDs []int64        `json:"category_ids,omitempty"`
	TagIDs      []int64        `json:"tag_ids,omitempty"`
	RegionIDs   []int64        `json:"region_ids,omitempty"`
	Files       []AttachedFile `json:"files,omitempty"`
}

// FeaturedFile returns the attachment flagged as the record's cover image,
// or nil when there is none.
func (r *SourceRecord) FeaturedFile() *AttachedFile {
	for i := range r.Files {
		if r.Files[i].IsFeatured {
			return &r.Files[i]
		}
	}
	return nil
}

// SourceUser is a legacy account referenced by content records.
type SourceUser struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
}

// TermNode is one taxonomy term with its tree position.
type TermNode struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"` // 0 means root
	Weight   int    `json:"weight"`
}
