package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SearchService provides access-filtered search to external actors.
type SearchService interface {
	// Search returns documents the user may see that match the query.
	// A user without category membership gets no results and no error.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)

	// RecentQueries returns a tenant's most recent logged queries.
	RecentQueries(ctx context.Context, tenantID string, limit int) ([]domain.SearchLog, error)
}
