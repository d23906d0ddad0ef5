package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// CategoryService manages categories and who may search them.
type CategoryService interface {
	// Add creates or replaces a category.
	Add(ctx context.Context, c *domain.Category) error

	// List returns a tenant's categories.
	List(ctx context.Context, tenantID string) ([]domain.Category, error)

	// Grant adds categories to a user's membership.
	Grant(ctx context.Context, tenantID, userID string, categoryIDs ...string) error

	// Revoke removes categories from a user's membership.
	Revoke(ctx context.Context, tenantID, userID string, categoryIDs ...string) error

	// AllowedCategories returns the categories a user may search, sorted.
	// A user without membership gets an empty set and no error.
	AllowedCategories(ctx context.Context, tenantID, userID string) ([]string, error)
}
