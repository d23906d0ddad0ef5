package services

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// DefaultAccessCacheSize bounds the number of cached memberships.
const DefaultAccessCacheSize = 1024

// AccessFilter resolves which categories a user may search.
type AccessFilter struct {
	store driven.CategoryStore
	cache *lru.Cache[string, []string]
}

// NewAccessFilter creates an access filter over the category store.
func NewAccessFilter(store driven.CategoryStore) *AccessFilter {
	cache, _ := lru.New[string, []string](DefaultAccessCacheSize)
	return &AccessFilter{store: store, cache: cache}
}

// AllowedCategories returns the user's categories, sorted and de-duplicated.
// A user without membership gets an empty set and no error.
func (a *AccessFilter) AllowedCategories(ctx context.Context, tenantID, userID string) ([]string, error) {
	key := membershipKey(tenantID, userID)
	if ids, ok := a.cache.Get(key); ok {
		return clone(ids), nil
	}

	m, err := a.store.GetMembership(ctx, tenantID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		a.cache.Add(key, []string{})
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	ids := m.CategoryIDs()
	if ids == nil {
		ids = []string{}
	}
	a.cache.Add(key, ids)
	return clone(ids), nil
}

// QueryFilter builds the filter for a text query restricted to the allowed
// categories. It matches nothing when allowed is empty.
func QueryFilter(text string, allowed []string) domain.Filter {
	return domain.And(
		domain.Match(text, domain.FieldTitle, domain.FieldDescription, domain.FieldContent),
		domain.In(domain.FieldCategory, allowed...),
	)
}

// Invalidate drops the cached membership of a user.
func (a *AccessFilter) Invalidate(tenantID, userID string) {
	a.cache.Remove(membershipKey(tenantID, userID))
}

// Permit keeps only results in an allowed category.
func Permit(results []domain.SearchResult, allowed []string) []domain.SearchResult {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	kept := results[:0]
	for _, r := range results {
		if _, ok := set[r.Document.Category]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}

func membershipKey(tenantID, userID string) string {
	return tenantID + "\x00" + userID
}

func clone(ids []string) []string {
	return append([]string{}, ids...)
}
