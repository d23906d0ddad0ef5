package azuresearch

import (
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Batch actions.
const (
	actionMergeOrUpload = "mergeOrUpload"
	actionDelete        = "delete"
)

type indexBatch struct {
	Value []map[string]any `json:"value"`
}

type indexResponse struct {
	Value []indexResult `json:"value"`
}

type indexResult struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

type searchRequest struct {
	Search       string `json:"search"`
	SearchFields string `json:"searchFields,omitempty"`
	Filter       string `json:"filter,omitempty"`
	Top          int    `json:"top"`
	Skip         int    `json:"skip,omitempty"`
}

type searchResponse struct {
	Value []searchHit `json:"value"`
}

type searchHit struct {
	Score        float64    `json:"@search.score"`
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	TenantID     string     `json:"tenant_id"`
	FileURL      string     `json:"file_url"`
	FileSizeMB   float64    `json:"file_size_mb"`
	UploadedAt   *time.Time `json:"uploaded_at"`
	Image        string     `json:"image"`
	ConnectionID string     `json:"connection_id"`
	RecordID     string     `json:"record_id"`
	ChunkIndex   int        `json:"chunk_index"`
}

func (h *searchHit) document() domain.Document {
	doc := domain.Document{
		ID:           h.ID,
		Title:        h.Title,
		Description:  h.Description,
		Content:      h.Content,
		Category:     h.Category,
		TenantID:     h.TenantID,
		FileURL:      h.FileURL,
		FileSizeMB:   h.FileSizeMB,
		Image:        h.Image,
		ConnectionID: h.ConnectionID,
		RecordID:     h.RecordID,
		ChunkIndex:   h.ChunkIndex,
	}
	if h.UploadedAt != nil {
		doc.UploadedAt = *h.UploadedAt
	}
	return doc
}

// toAction renders a document as a batch entry.
func toAction(doc *domain.Document, action string) map[string]any {
	entry := map[string]any{
		"@search.action":        action,
		domain.FieldID:          doc.ID,
		domain.FieldTitle:       doc.Title,
		domain.FieldDescription: doc.Description,
		domain.FieldContent:     doc.Content,
		domain.FieldCategory:    doc.Category,
		domain.FieldTenantID:    doc.TenantID,
		domain.FieldFileURL:     doc.FileURL,
		"file_size_mb":          doc.FileSizeMB,
		"connection_id":         doc.ConnectionID,
		"record_id":             doc.RecordID,
		"chunk_index":           doc.ChunkIndex,
	}
	if doc.Image != "" {
		entry[domain.FieldImage] = doc.Image
	}
	if !doc.UploadedAt.IsZero() {
		entry["uploaded_at"] = doc.UploadedAt.UTC().Format(time.RFC3339)
	}
	return entry
}
