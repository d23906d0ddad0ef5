package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// CategoryStore persists categories and per-user category memberships.
type CategoryStore interface {
	// SaveCategory creates or replaces a category.
	SaveCategory(ctx context.Context, c *domain.Category) error

	// ListCategories returns a tenant's categories ordered by id.
	ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error)

	// GetMembership returns a user's membership.
	// Returns domain.ErrNotFound if the user has none.
	GetMembership(ctx context.Context, tenantID, userID string) (*domain.CategoryMembership, error)

	// SaveMembership creates or replaces a user's membership.
	SaveMembership(ctx context.Context, m *domain.CategoryMembership) error
}

// SearchLogStore persists the per-tenant query log.
type SearchLogStore interface {
	// Append records a query.
	Append(ctx context.Context, entry *domain.SearchLog) error

	// List returns a tenant's most recent entries, newest first.
	List(ctx context.Context, tenantID string, limit int) ([]domain.SearchLog, error)

	// Prune removes entries created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}
