package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.CategoryStore  = (*CategoryStore)(nil)
	_ driven.SearchLogStore = (*SearchLogStore)(nil)
)

// CategoryStore is an in-memory implementation of driven.CategoryStore.
type CategoryStore struct {
	mu          sync.RWMutex
	categories  map[string]map[string]domain.Category
	memberships map[string]map[string]domain.CategoryMembership
}

// NewCategoryStore creates a new in-memory category store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{
		categories:  make(map[string]map[string]domain.Category),
		memberships: make(map[string]map[string]domain.CategoryMembership),
	}
}

// SaveCategory creates or replaces a category.
func (s *CategoryStore) SaveCategory(_ context.Context, c *domain.Category) error {
	if c == nil || c.ID == "" || c.TenantID == "" {
		return fmt.Errorf("%w: category id and tenant are required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categories[c.TenantID] == nil {
		s.categories[c.TenantID] = make(map[string]domain.Category)
	}
	s.categories[c.TenantID][c.ID] = *c
	return nil
}

// ListCategories returns a tenant's categories ordered by id.
func (s *CategoryStore) ListCategories(_ context.Context, tenantID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Category, 0, len(s.categories[tenantID]))
	for _, c := range s.categories[tenantID] {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetMembership returns a user's membership.
func (s *CategoryStore) GetMembership(_ context.Context, tenantID, userID string) (*domain.CategoryMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[tenantID][userID]
	if !ok {
		return nil, fmt.Errorf("%w: membership %s/%s", domain.ErrNotFound, tenantID, userID)
	}
	return &m, nil
}

// SaveMembership creates or replaces a user's membership.
func (s *CategoryStore) SaveMembership(_ context.Context, m *domain.CategoryMembership) error {
	if m == nil || m.TenantID == "" || m.UserID == "" {
		return fmt.Errorf("%w: membership tenant and user are required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberships[m.TenantID] == nil {
		s.memberships[m.TenantID] = make(map[string]domain.CategoryMembership)
	}
	s.memberships[m.TenantID][m.UserID] = *m
	return nil
}

// SearchLogStore is an in-memory implementation of driven.SearchLogStore.
type SearchLogStore struct {
	mu      sync.RWMutex
	entries []domain.SearchLog
}

// NewSearchLogStore creates a new in-memory search log store.
func NewSearchLogStore() *SearchLogStore {
	return &SearchLogStore{}
}

// Append records a query.
func (s *SearchLogStore) Append(_ context.Context, entry *domain.SearchLog) error {
	if entry == nil || entry.TenantID == "" {
		return fmt.Errorf("%w: search log tenant is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// List returns a tenant's most recent entries, newest first.
func (s *SearchLogStore) List(_ context.Context, tenantID string, limit int) ([]domain.SearchLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SearchLog, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TenantID != tenantID {
			continue
		}
		result = append(result, s.entries[i])
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Prune removes entries created before cutoff and returns how many.
func (s *SearchLogStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	s.entries = kept
	return removed, nil
}
