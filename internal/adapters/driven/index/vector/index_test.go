package vector

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

const testDims = 256

// bagEmbedder hashes words into buckets, so texts sharing words are close.
type bagEmbedder struct {
	err    error
	calls  int
	closed bool
}

func (e *bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, testDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,!?")))
		vec[h.Sum32()%testDims]++
	}
	vec[testDims-1] += 0.01
	return vec, nil
}

func (e *bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *bagEmbedder) Dimensions() int            { return testDims }
func (e *bagEmbedder) ModelName() string          { return "bag" }
func (e *bagEmbedder) Ping(context.Context) error { return e.err }
func (e *bagEmbedder) Close() error               { e.closed = true; return nil }

var corpus = []domain.Document{
	{ID: "hr-1", TenantID: "acme", Category: "hr", Title: "Vacation", Content: "vacation leave holiday days"},
	{ID: "hr-2", TenantID: "acme", Category: "hr", Title: "Dental", Content: "dental vision insurance cover"},
	{ID: "eng-1", TenantID: "acme", Category: "eng", Title: "Pager", Content: "pager oncall rotation incident"},
	{ID: "eng-2", TenantID: "acme", Category: "eng", Title: "Vacation handover", Content: "vacation holiday handover oncall"},
}

func newTestIndex(t *testing.T, dir string) (*Index, *bagEmbedder) {
	t.Helper()
	emb := &bagEmbedder{}
	idx, err := New(emb, dir)
	require.NoError(t, err)
	return idx, emb
}

func TestIndex_SearchRanksBySimilarity(t *testing.T) {
	idx, _ := newTestIndex(t, "")
	defer idx.Close()
	ctx := context.Background()
	for i := range corpus {
		require.NoError(t, idx.Upsert(ctx, &corpus[i]))
	}

	results, err := idx.Search(ctx, domain.SearchQuery{
		TenantID: "acme",
		Text:     "vacation holiday",
		Filter:   domain.And(domain.Match("vacation holiday"), domain.In(domain.FieldCategory, "hr")),
		Limit:    1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hr-1", results[0].Document.ID)
	assert.Greater(t, results[0].Score, 0.5)

	results, err = idx.Search(ctx, domain.SearchQuery{
		TenantID: "acme",
		Text:     "oncall pager",
		Filter:   domain.In(domain.FieldCategory, "eng"),
		Limit:    5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "eng-1", results[0].Document.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestIndex_FilterAndTenantIsolation(t *testing.T) {
	idx, _ := newTestIndex(t, "")
	defer idx.Close()
	ctx := context.Background()
	for i := range corpus {
		require.NoError(t, idx.Upsert(ctx, &corpus[i]))
	}
	require.NoError(t, idx.Upsert(ctx, &domain.Document{ID: "g", TenantID: "globex", Category: "hr", Content: "vacation"}))

	results, err := idx.Search(ctx, domain.SearchQuery{TenantID: "acme", Text: "vacation", Filter: domain.In(domain.FieldCategory)})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(ctx, domain.SearchQuery{TenantID: "globex", Text: "vacation", Filter: domain.All()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "g", results[0].Document.ID)
}

func TestIndex_UpsertReplacesAndDeleteRemoves(t *testing.T) {
	idx, _ := newTestIndex(t, "")
	defer idx.Close()
	ctx := context.Background()

	doc := domain.Document{ID: "d", TenantID: "acme", Category: "hr", Content: "vacation"}
	require.NoError(t, idx.Upsert(ctx, &doc))
	doc.Content = "pager oncall"
	require.NoError(t, idx.Upsert(ctx, &doc))

	tenant, err := idx.tenant("acme")
	require.NoError(t, err)
	assert.Equal(t, 1, tenant.graph.Len())

	results, err := idx.Search(ctx, domain.SearchQuery{TenantID: "acme", Text: "pager", Filter: domain.All()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pager oncall", results[0].Document.Content)

	require.NoError(t, idx.Delete(ctx, "acme", "d"))
	require.NoError(t, idx.Delete(ctx, "acme", "never-existed"))
	results, err = idx.Search(ctx, domain.SearchQuery{TenantID: "acme", Text: "pager", Filter: domain.All()})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_PersistsOnClose(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, emb := newTestIndex(t, dir)
	for i := range corpus {
		require.NoError(t, idx.Upsert(ctx, &corpus[i]))
	}
	require.NoError(t, idx.Close())
	assert.True(t, emb.closed)

	reopened, _ := newTestIndex(t, dir)
	defer reopened.Close()
	results, err := reopened.Search(ctx, domain.SearchQuery{TenantID: "acme", Text: "dental insurance", Filter: domain.All(), Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hr-2", results[0].Document.ID)
}

func TestIndex_EmbeddingFailure(t *testing.T) {
	idx, emb := newTestIndex(t, "")
	defer idx.Close()
	emb.err = errors.Join(domain.ErrEmbeddingUnavailable, domain.ErrTransient)

	err := idx.Upsert(context.Background(), &corpus[0])
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.True(t, domain.IsRetryable(err))
}

func TestIndex_RequiresEmbedder(t *testing.T) {
	_, err := New(nil, "")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestGraph(t *testing.T) {
	ctx := context.Background()
	g := NewGraph(3)

	require.NoError(t, g.Add(ctx, "x", []float32{1, 0, 0}))
	require.NoError(t, g.Add(ctx, "y", []float32{0, 1, 0}))
	require.NoError(t, g.Add(ctx, "x", []float32{0, 0, 1}))
	assert.Equal(t, 2, g.Len())

	hits, err := g.Search(ctx, []float32{0, 0, 2}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)

	_, err = g.Search(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, g.Add(ctx, "z", []float32{1}), domain.ErrInvalidInput)

	require.NoError(t, g.Close())
	assert.ErrorIs(t, g.Add(ctx, "z", []float32{1, 1, 1}), domain.ErrIndexUnavailable)
}
