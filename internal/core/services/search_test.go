package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

type searchFixture struct {
	primary    *memory.Index
	secondary  *memory.Index
	categories *memory.CategoryStore
	logs       *memory.SearchLogStore
	access     *AccessFilter
	service    *SearchService
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	ctx := context.Background()

	f := &searchFixture{
		primary:    memory.NewIndex("primary"),
		secondary:  memory.NewIndex("secondary"),
		categories: memory.NewCategoryStore(),
		logs:       memory.NewSearchLogStore(),
	}
	f.access = NewAccessFilter(f.categories)
	f.service = NewSearchService(f.primary, f.secondary, f.access, f.logs)

	docs := []domain.Document{
		{ID: "hr-1", TenantID: "acme", Category: "hr", Title: "Leave", Content: "Vacation policy. Request leave early."},
		{ID: "eng-1", TenantID: "acme", Category: "eng", Title: "Oncall", Content: "Vacation handover for oncall."},
		{ID: "fin-1", TenantID: "acme", Category: "finance", Title: "Budget", Content: "Vacation budget numbers."},
		{ID: "other-1", TenantID: "globex", Category: "hr", Title: "Leave", Content: "Vacation at globex."},
	}
	for i := range docs {
		require.NoError(t, f.primary.Upsert(ctx, &docs[i]))
		require.NoError(t, f.secondary.Upsert(ctx, &docs[i]))
	}
	require.NoError(t, f.categories.SaveMembership(ctx, &domain.CategoryMembership{
		TenantID: "acme", UserID: "alice", Categories: "hr, eng ,hr",
	}))
	return f
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Document.ID)
	}
	return out
}

func TestSearch_RestrictsToMemberCategories(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), domain.SearchRequest{
		TenantID: "acme", UserID: "alice", Query: "vacation",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hr-1", "eng-1"}, ids(results))
	for _, r := range results {
		assert.NotEmpty(t, r.Highlights)
	}
}

func TestSearch_NoMembershipReturnsNothing(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), domain.SearchRequest{
		TenantID: "acme", UserID: "mallory", Query: "vacation",
	})
	require.NoError(t, err)
	assert.Empty(t, results)

	logged, err := f.service.RecentQueries(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "mallory", logged[0].UserID)
	assert.Equal(t, 0, logged[0].Results)
}

func TestSearch_TenantIsolation(t *testing.T) {
	f := newSearchFixture(t)
	require.NoError(t, f.categories.SaveMembership(context.Background(), &domain.CategoryMembership{
		TenantID: "globex", UserID: "alice", Categories: "hr",
	}))

	results, err := f.service.Search(context.Background(), domain.SearchRequest{
		TenantID: "globex", UserID: "alice", Query: "vacation",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"other-1"}, ids(results))
}

func TestSearch_Semantic(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), domain.SearchRequest{
		TenantID: "acme", UserID: "alice", Query: "oncall", Semantic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"eng-1"}, ids(results))

	noSecondary := NewSearchService(f.primary, nil, f.access, nil)
	_, err = noSecondary.Search(context.Background(), domain.SearchRequest{
		TenantID: "acme", UserID: "alice", Query: "oncall", Semantic: true,
	})
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestSearch_Validation(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.service.Search(context.Background(), domain.SearchRequest{UserID: "alice", Query: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	results, err := f.service.Search(context.Background(), domain.SearchRequest{
		TenantID: "acme", UserID: "alice", Query: "   ",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LogsQueries(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	for _, q := range []string{"vacation", "budget"} {
		_, err := f.service.Search(ctx, domain.SearchRequest{TenantID: "acme", UserID: "alice", Query: q})
		require.NoError(t, err)
	}

	logged, err := f.service.RecentQueries(ctx, "acme", 0)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	queries := []string{logged[0].Query, logged[1].Query}
	assert.ElementsMatch(t, []string{"vacation", "budget"}, queries)
}

// failingCategoryStore fails every membership lookup.
type failingCategoryStore struct {
	*memory.CategoryStore
	calls int
}

func (s *failingCategoryStore) GetMembership(context.Context, string, string) (*domain.CategoryMembership, error) {
	s.calls++
	return nil, errors.New("store offline")
}

func TestAccessFilter_PropagatesStoreErrors(t *testing.T) {
	store := &failingCategoryStore{CategoryStore: memory.NewCategoryStore()}
	access := NewAccessFilter(store)

	_, err := access.AllowedCategories(context.Background(), "acme", "alice")
	assert.Error(t, err)
	_, err = access.AllowedCategories(context.Background(), "acme", "alice")
	assert.Error(t, err)
	assert.Equal(t, 2, store.calls)
}

// countingCategoryStore counts membership lookups.
type countingCategoryStore struct {
	*memory.CategoryStore
	calls int
}

func (s *countingCategoryStore) GetMembership(ctx context.Context, tenantID, userID string) (*domain.CategoryMembership, error) {
	s.calls++
	return s.CategoryStore.GetMembership(ctx, tenantID, userID)
}

func TestAccessFilter_CachesUntilInvalidated(t *testing.T) {
	store := &countingCategoryStore{CategoryStore: memory.NewCategoryStore()}
	ctx := context.Background()
	require.NoError(t, store.SaveMembership(ctx, &domain.CategoryMembership{
		TenantID: "acme", UserID: "alice", Categories: "b,a, ,a",
	}))
	access := NewAccessFilter(store)

	got, err := access.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got[0] = "mutated"
	got, err = access.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, store.calls)

	none, err := access.AllowedCategories(ctx, "acme", "bob")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)

	access.Invalidate("acme", "alice")
	_, err = access.AllowedCategories(ctx, "acme", "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
}

func TestQueryFilter(t *testing.T) {
	assert.True(t, QueryFilter("x", nil).MatchesNothing())
	assert.False(t, QueryFilter("x", []string{"hr"}).MatchesNothing())

	doc := &domain.Document{Category: "hr", Content: "vacation"}
	assert.True(t, QueryFilter("vacation", []string{"hr"}).Matches(doc))
	assert.False(t, QueryFilter("vacation", []string{"eng"}).Matches(doc))
}

func TestPermit(t *testing.T) {
	results := []domain.SearchResult{
		{Document: domain.Document{ID: "1", Category: "hr"}},
		{Document: domain.Document{ID: "2", Category: "eng"}},
		{Document: domain.Document{ID: "3", Category: "hr"}},
	}
	assert.Equal(t, []string{"1", "3"}, ids(Permit(results, []string{"hr"})))
}

func TestGenerateHighlights(t *testing.T) {
	content := "First line about cats. Second about dogs! Third mentions cats again? Fourth cats. Fifth cats."
	got := generateHighlights(content, "cats")
	require.Len(t, got, maxHighlights)
	assert.Equal(t, "First line about cats.", got[0])
	assert.Nil(t, generateHighlights(content, "  "))
}
