package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Document field names, shared by the filter AST and the index adapters.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldContent     = "content"
	FieldCategory    = "category"
	FieldTenantID    = "tenant_id"
	FieldFileURL     = "file_url"
	FieldImage       = "image"
)

// DescriptionLength is the maximum number of runes kept in Document.Description.
const DescriptionLength = 300

// Document is the normalised, index-ready unit written to both indices.
// One raw record yields one Document per chunk of its extracted text.
type Document struct {
	// ID is derived deterministically from the source coordinates so that
	// re-processing a record overwrites instead of duplicating.
	ID string

	// Title is the human-readable title.
	Title string

	// Description is a short summary of Content.
	Description string

	// Content is the chunk text.
	Content string

	// Category is the category id access control filters on.
	Category string

	// TenantID scopes the document; the primary index is per tenant.
	TenantID string

	// FileURL links back to the source item.
	FileURL string

	// FileSizeMB is the size of the source payload.
	FileSizeMB float64

	// UploadedAt is when the source item was last modified.
	UploadedAt time.Time

	// Image is an optional preview image URL.
	Image string

	// ConnectionID is the connection that produced the document, empty for
	// documents written interactively.
	ConnectionID string

	// RecordID is the source-native id of the raw record.
	RecordID string

	// ChunkIndex is the position of Content within the record's text.
	ChunkIndex int
}

// Validate checks the fields both indices require.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if d.TenantID == "" {
		return fmt.Errorf("%w: document %s has no tenant", ErrInvalidInput, d.ID)
	}
	return nil
}

// Field returns the string value of a named field, used for in-memory filtering.
func (d *Document) Field(name string) string {
	switch name {
	case FieldID:
		return d.ID
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldContent:
		return d.Content
	case FieldCategory:
		return d.Category
	case FieldTenantID:
		return d.TenantID
	case FieldFileURL:
		return d.FileURL
	case FieldImage:
		return d.Image
	default:
		return ""
	}
}

// DocumentKey builds the stable string a document id is derived from.
// Identical coordinates always produce the same key.
func DocumentKey(kind SourceKind, tenantID, connectionKey, recordID string, chunkIndex int) string {
	return strings.Join([]string{
		string(kind), tenantID, connectionKey, recordID, strconv.Itoa(chunkIndex),
	}, "|")
}

// Summarize returns at most n runes of text with whitespace collapsed.
func Summarize(text string, n int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(collapsed) <= n {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimSpace(string(runes[:n]))
}

// BytesToMB converts a byte count to megabytes rounded to two decimals.
func BytesToMB(size int64) float64 {
	if size <= 0 {
		return 0
	}
	mb := float64(size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
