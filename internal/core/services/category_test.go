package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func newCategoryService() (*CategoryService, *memory.CategoryStore) {
	store := memory.NewCategoryStore()
	return NewCategoryService(store, NewAccessFilter(store)), store
}

func TestCategoryService_GrantRevoke(t *testing.T) {
	svc, store := newCategoryService()
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, "acme", "alice", "hr", "eng"))
	got, err := svc.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "hr"}, got)

	// Cached value must not survive a membership write.
	require.NoError(t, svc.Grant(ctx, "acme", "alice", "finance", "hr"))
	got, err = svc.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "finance", "hr"}, got)

	require.NoError(t, svc.Revoke(ctx, "acme", "alice", "hr", " eng "))
	got, err = svc.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, got)

	m, err := store.GetMembership(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, "finance", m.Categories)
	assert.False(t, m.UpdatedAt.IsZero())
}

func TestCategoryService_RevokeWithoutMembership(t *testing.T) {
	svc, _ := newCategoryService()
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "acme", "bob", "hr"))
	got, err := svc.AllowedCategories(ctx, "acme", "bob")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCategoryService_Validation(t *testing.T) {
	svc, _ := newCategoryService()
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"grant without tenant", func() error { return svc.Grant(ctx, "", "alice", "hr") }},
		{"grant without user", func() error { return svc.Grant(ctx, "acme", "", "hr") }},
		{"revoke without user", func() error { return svc.Revoke(ctx, "acme", "", "hr") }},
		{"add nil", func() error { return svc.Add(ctx, nil) }},
		{"add without tenant", func() error { return svc.Add(ctx, &domain.Category{ID: "hr"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), domain.ErrInvalidInput)
		})
	}
}

func TestCategoryService_AddList(t *testing.T) {
	svc, _ := newCategoryService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, &domain.Category{ID: "hr", TenantID: "acme", Name: "People"}))
	require.NoError(t, svc.Add(ctx, &domain.Category{ID: "eng", TenantID: "acme"}))
	require.NoError(t, svc.Add(ctx, &domain.Category{ID: "ops", TenantID: "globex"}))

	list, err := svc.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "eng", list[0].ID)
	assert.Equal(t, "hr", list[1].ID)
	assert.False(t, list[1].CreatedAt.IsZero())
}
