package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestIndex_UpsertIsIdempotent(t *testing.T) {
	idx := NewIndex("primary")
	ctx := context.Background()
	doc := &domain.Document{ID: "d1", TenantID: "t1", Title: "Handbook", Content: "vacation policy", Category: "hr"}

	require.NoError(t, idx.Upsert(ctx, doc))
	require.NoError(t, idx.Upsert(ctx, doc))

	n, err := idx.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := idx.Get(ctx, "t1", "d1")
	require.NoError(t, err)
	assert.Equal(t, *doc, *got)
}

func TestIndex_SearchAppliesFilter(t *testing.T) {
	idx := NewIndex("primary")
	ctx := context.Background()
	docs := []domain.Document{
		{ID: "a", TenantID: "t1", Content: "vacation vacation policy", Category: "hr"},
		{ID: "b", TenantID: "t1", Content: "vacation planning", Category: "eng"},
		{ID: "c", TenantID: "t1", Content: "deploy guide", Category: "hr"},
		{ID: "d", TenantID: "t2", Content: "vacation", Category: "hr"},
	}
	for i := range docs {
		require.NoError(t, idx.Upsert(ctx, &docs[i]))
	}

	results, err := idx.Search(ctx, domain.SearchQuery{
		TenantID: "t1",
		Text:     "vacation",
		Filter:   domain.And(domain.Match("vacation"), domain.In(domain.FieldCategory, "hr", "eng")),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "b", results[1].Document.ID)

	results, err = idx.Search(ctx, domain.SearchQuery{
		TenantID: "t1",
		Text:     "vacation",
		Filter:   domain.And(domain.Match("vacation"), domain.In(domain.FieldCategory, "hr")),
		Limit:    1,
		Offset:   1,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_FailNext(t *testing.T) {
	idx := NewIndex("secondary")
	ctx := context.Background()
	doc := &domain.Document{ID: "d1", TenantID: "t1"}
	boom := errors.New("boom")

	idx.FailNext(boom, nil)
	assert.ErrorIs(t, idx.Upsert(ctx, doc), boom)
	assert.NoError(t, idx.Upsert(ctx, doc))
	assert.NoError(t, idx.Delete(ctx, "t1", "d1"))
	assert.NoError(t, idx.Delete(ctx, "t1", "d1"))
	assert.Equal(t, 4, idx.Writes())

	_, err := idx.Get(ctx, "t1", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, idx.Close())
	assert.ErrorIs(t, idx.Upsert(ctx, doc), domain.ErrIndexUnavailable)
}
