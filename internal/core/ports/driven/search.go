package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// PrimaryIndex is the authoritative full-text index.
// Backed by bleve, one index per tenant.
type PrimaryIndex interface {
	// Upsert adds or replaces a document. Writing the same document twice
	// leaves the index unchanged.
	Upsert(ctx context.Context, doc *domain.Document) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, tenantID, id string) error

	// Get returns a document by id.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, tenantID, id string) (*domain.Document, error)

	// Search returns documents matching the query's filter.
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchResult, error)

	// Count returns the number of documents in a tenant's index.
	Count(ctx context.Context, tenantID string) (int, error)

	// Close releases resources.
	Close() error
}

// SecondaryIndex is the semantic search index kept consistent with the
// primary. Backed by a hosted search service or a local vector graph.
type SecondaryIndex interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Upsert merges or uploads a document.
	Upsert(ctx context.Context, doc *domain.Document) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, tenantID, id string) error

	// Search returns documents semantically close to the query, restricted
	// by its filter.
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
