package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// DocumentService writes individual documents through the dual-index writer.
type DocumentService interface {
	// Put upserts a document into both indices. A partial write returns the
	// result together with an error wrapping domain.ErrPartialWrite.
	Put(ctx context.Context, doc *domain.Document) (domain.WriteResult, error)

	// Delete removes a document from both indices.
	Delete(ctx context.Context, tenantID, id string) (domain.WriteResult, error)

	// Get retrieves a document from the primary index.
	Get(ctx context.Context, tenantID, id string) (*domain.Document, error)
}
