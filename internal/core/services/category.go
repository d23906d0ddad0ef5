package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ensure CategoryService implements the interface.
var _ driving.CategoryService = (*CategoryService)(nil)

// CategoryService manages categories and memberships. Membership writes
// invalidate the access filter's cache.
type CategoryService struct {
	store  driven.CategoryStore
	access *AccessFilter
}

// NewCategoryService creates a new category service.
func NewCategoryService(store driven.CategoryStore, access *AccessFilter) *CategoryService {
	return &CategoryService{store: store, access: access}
}

// Add creates or replaces a category.
func (s *CategoryService) Add(ctx context.Context, c *domain.Category) error {
	if c == nil || c.ID == "" || c.TenantID == "" {
		return fmt.Errorf("%w: category id and tenant are required", domain.ErrInvalidInput)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.store.SaveCategory(ctx, c)
}

// List returns a tenant's categories.
func (s *CategoryService) List(ctx context.Context, tenantID string) ([]domain.Category, error) {
	return s.store.ListCategories(ctx, tenantID)
}

// Grant adds categories to a user's membership.
func (s *CategoryService) Grant(ctx context.Context, tenantID, userID string, categoryIDs ...string) error {
	return s.update(ctx, tenantID, userID, func(ids []string) []string {
		return append(ids, categoryIDs...)
	})
}

// Revoke removes categories from a user's membership.
func (s *CategoryService) Revoke(ctx context.Context, tenantID, userID string, categoryIDs ...string) error {
	drop := make(map[string]struct{}, len(categoryIDs))
	for _, id := range domain.ParseCategoryList(domain.JoinCategoryList(categoryIDs)) {
		drop[id] = struct{}{}
	}
	return s.update(ctx, tenantID, userID, func(ids []string) []string {
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := drop[id]; !ok {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

// AllowedCategories returns the categories a user may search, sorted.
func (s *CategoryService) AllowedCategories(ctx context.Context, tenantID, userID string) ([]string, error) {
	return s.access.AllowedCategories(ctx, tenantID, userID)
}

func (s *CategoryService) update(ctx context.Context, tenantID, userID string, change func([]string) []string) error {
	if tenantID == "" || userID == "" {
		return fmt.Errorf("%w: tenant and user are required", domain.ErrInvalidInput)
	}

	m, err := s.store.GetMembership(ctx, tenantID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		m = &domain.CategoryMembership{TenantID: tenantID, UserID: userID}
	} else if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}

	m.Categories = domain.JoinCategoryList(change(m.CategoryIDs()))
	m.UpdatedAt = time.Now()
	if err := s.store.SaveMembership(ctx, m); err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	s.access.Invalidate(tenantID, userID)
	return nil
}
