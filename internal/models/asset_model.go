package models

import (
	"time"

	"github.com/lib/pq"
)

type MediaAsset struct {
	ID         string         `db:"id" json:"id"`
	SourcePath string         `db:"source_path" json:"source_path"`
	FileURL    string         `db:"file_url" json:"file_url"`
	MimeType   string         `db:"mime_type" json:"mime_type"`
	Tags       pq.StringArray `db:"tags" json:"tags"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`

	// IsUsed is derived from the post store on read, never stored.
	IsUsed bool `db:"-" json:"is_used"`
}
