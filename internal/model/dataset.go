package model

import (
	"slices"
	"time"
)

// Dataset file formats accepted by the upload endpoint.
const (
	FormatJSON = "json"
)

// Dataset origin markers stored in metadata.
const (
	DatasetSourceUpload    = "upload"
	DatasetSourceHFImport  = "hf_import"
	DatasetSourcePDFBundle = "pdf_bundle"
)

// Dataset represents an uploaded or imported training corpus.
type Dataset struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	FilePath         string          `json:"-"` // server-side path, never exposed
	FileSize         int64           `json:"file_size"`
	FileFormat       string          `json:"file_format"`
	OriginalFilename string          `json:"original_filename,omitempty"`
	ContentHash      string          `json:"content_hash"`
	Metadata         DatasetMetadata `json:"metadata"`
	Statistics       map[string]any  `json:"statistics,omitempty"`
	IsPublic         bool            `json:"is_public"`
	IsShared         bool            `json:"is_shared"`
	SharedWith       []string        `json:"shared_with,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DatasetMetadata is the JSON metadata blob on a dataset row.
type DatasetMetadata struct {
	Samples     int      `json:"samples"`
	Languages   []string `json:"languages"`
	Categories  []string `json:"categories,omitempty"`
	CreatedFrom string   `json:"created_from"`
	SourceFiles []string `json:"source_files,omitempty"`
}

// AccessibleBy reports whether a user may read this dataset.
// Ownership grants full access; public and shared grant read.
func (d *Dataset) AccessibleBy(userID string) bool {
	if d.UserID == userID {
		return true
	}
	if d.IsPublic {
		return true
	}
	return d.IsShared && slices.Contains(d.SharedWith, userID)
}

// Record is one training example in the canonical dataset shape.
// Source holds the full legal text, Target the reference summary,
// simplification, or translation.
type Record struct {
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Language string            `json:"language,omitempty"`
	Targets  map[string]string `json:"targets,omitempty"` // per-language, multilingual corpora
	Category string            `json:"category,omitempty"`
}
