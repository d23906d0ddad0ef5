package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestCategoryStore_Categories(t *testing.T) {
	store := NewCategoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveCategory(ctx, &domain.Category{ID: "hr", TenantID: "t1", Name: "HR"}))
	require.NoError(t, store.SaveCategory(ctx, &domain.Category{ID: "eng", TenantID: "t1", Name: "Engineering"}))
	require.NoError(t, store.SaveCategory(ctx, &domain.Category{ID: "ops", TenantID: "t2"}))

	got, err := store.ListCategories(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "eng", got[0].ID)
	assert.Equal(t, "hr", got[1].ID)

	assert.ErrorIs(t, store.SaveCategory(ctx, &domain.Category{ID: "x"}), domain.ErrInvalidInput)
}

func TestCategoryStore_Memberships(t *testing.T) {
	store := NewCategoryStore()
	ctx := context.Background()

	_, err := store.GetMembership(ctx, "t1", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveMembership(ctx, &domain.CategoryMembership{
		TenantID: "t1", UserID: "alice", Categories: "hr, eng",
	}))

	m, err := store.GetMembership(ctx, "t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "hr"}, m.CategoryIDs())

	_, err = store.GetMembership(ctx, "t2", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchLogStore(t *testing.T) {
	store := NewSearchLogStore()
	ctx := context.Background()
	now := time.Now()

	entries := []domain.SearchLog{
		{ID: "1", TenantID: "t1", Query: "old", CreatedAt: now.Add(-100 * 24 * time.Hour)},
		{ID: "2", TenantID: "t1", Query: "recent", CreatedAt: now.Add(-time.Hour)},
		{ID: "3", TenantID: "t2", Query: "other", CreatedAt: now},
		{ID: "4", TenantID: "t1", Query: "newest", CreatedAt: now},
	}
	for i := range entries {
		require.NoError(t, store.Append(ctx, &entries[i]))
	}

	got, err := store.List(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newest", got[0].Query)
	assert.Equal(t, "recent", got[1].Query)

	removed, err := store.Prune(ctx, now.Add(-domain.SearchLogRetention))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err = store.List(ctx, "t1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
