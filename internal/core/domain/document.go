package domain

import "time"

// ScannedFile is one candidate produced by a scanner feed. ContentFingerprint
// is whatever the scanner chose to fingerprint the underlying file with; the
// pipeline only ever compares it for equality.
type ScannedFile struct {
	Locator            string    `json:"locator"`
	DisplayName        string    `json:"display_name"`
	SourcePath         string    `json:"source_path"`
	SizeBytes          int64     `json:"size_bytes"`
	MimeType           string    `json:"mime_type"`
	ModifiedAt         time.Time `json:"modified_at"`
	ContentFingerprint string    `json:"content_fingerprint"`
}

// Document is the durable record of one imported file. OriginalContentFingerprint
// carries a unique index; two non-deleted documents never share one.
type Document struct {
	ID                         string    `json:"id"`
	OriginalFileName           string    `json:"original_file_name"`
	OriginalContentFingerprint string    `json:"original_content_fingerprint"`
	VaultObjectName            string    `json:"vault_object_name"`
	Title                      string    `json:"title"`
	Category                   string    `json:"category"`
	UserCategory               *string   `json:"user_category,omitempty"`
	UserTitle                  *string   `json:"user_title,omitempty"`
	ExtractedText              string    `json:"extracted_text,omitempty"`
	MetadataBlob               string    `json:"metadata_blob,omitempty"`
	Confidence                 float64   `json:"confidence"`
	FileSizeBytes              int64     `json:"file_size_bytes"`
	MimeType                   string    `json:"mime_type"`
	SourceFolder               string    `json:"source_folder"`
	ImportedAt                 time.Time `json:"imported_at"`
	IsFavorite                 bool      `json:"is_favorite"`
}

// EffectiveCategory prefers the user's correction over the classifier's pick.
func (d *Document) EffectiveCategory() string {
	if d.UserCategory != nil && *d.UserCategory != "" {
		return *d.UserCategory
	}
	return d.Category
}

// EffectiveTitle prefers the user's title over the generated one.
func (d *Document) EffectiveTitle() string {
	if d.UserTitle != nil && *d.UserTitle != "" {
		return *d.UserTitle
	}
	return d.Title
}

// LearnedKeyword maps a keyword seen in a corrected document to the category
// the user assigned. Learned keywords out-rank every heuristic on future imports.
type LearnedKeyword struct {
	Keyword          string `json:"keyword"`
	AssignedCategory string `json:"assigned_category"`
	Frequency        int    `json:"frequency"`
}

// VaultObject describes one encrypted blob on disk.
type VaultObject struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Metadata is the structured data pulled out of extracted text.
// All three lists are de-duplicated and order-preserving.
type Metadata struct {
	Dates           []string `json:"dates"`
	Amounts         []string `json:"amounts"`
	DocumentNumbers []string `json:"document_numbers"`
}

// CategoryCount is one row of the per-category aggregation, keyed on the
// effective category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// VaultStats aggregates the whole collection.
type VaultStats struct {
	TotalDocuments int64 `json:"total_documents"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

type ImportPhase string

const (
	ImportIdle     ImportPhase = "idle"
	ImportProgress ImportPhase = "progress"
	ImportSuccess  ImportPhase = "success"
	ImportError    ImportPhase = "error"
)

// ImportStatus is one event on the import progress stream. Current is
// monotonically non-decreasing over one ImportFiles call and reaches Total
// exactly once before the Success event.
type ImportStatus struct {
	Phase       ImportPhase `json:"phase"`
	Current     int         `json:"current,omitempty"`
	Total       int         `json:"total,omitempty"`
	CurrentName string      `json:"current_name,omitempty"`
	Imported    int         `json:"imported,omitempty"`
	Message     string      `json:"message,omitempty"`
}
