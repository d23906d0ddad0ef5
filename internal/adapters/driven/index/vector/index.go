package vector

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SecondaryIndex = (*Index)(nil)

// oversample is how many candidates are fetched per wanted result before
// filtering.
const oversample = 4

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Index embeds documents and searches them by similarity.
type Index struct {
	embedder driven.EmbeddingService
	dir      string

	mu      sync.Mutex
	tenants map[string]*tenantIndex
	closed  bool
}

type tenantIndex struct {
	mu    sync.RWMutex
	graph *Graph
	docs  map[string]domain.Document
}

// New creates a vector index. An empty dir keeps everything in memory.
func New(embedder driven.EmbeddingService, dir string) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: vector index needs an embedding service", domain.ErrEmbeddingUnavailable)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create vector directory %s: %w", dir, err)
		}
	}
	return &Index{embedder: embedder, dir: dir, tenants: make(map[string]*tenantIndex)}, nil
}

// Name identifies the backend.
func (x *Index) Name() string {
	return "vector"
}

func (x *Index) tenant(tenantID string) (*tenantIndex, error) {
	if !tenantPattern.MatchString(tenantID) {
		return nil, fmt.Errorf("%w: invalid tenant id %q", domain.ErrInvalidInput, tenantID)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, fmt.Errorf("%w: vector index closed", domain.ErrIndexUnavailable)
	}
	if t, ok := x.tenants[tenantID]; ok {
		return t, nil
	}

	t, err := x.load(tenantID)
	if err != nil {
		return nil, err
	}
	x.tenants[tenantID] = t
	return t, nil
}

func (x *Index) load(tenantID string) (*tenantIndex, error) {
	fresh := &tenantIndex{
		graph: NewGraph(x.embedder.Dimensions()),
		docs:  make(map[string]domain.Document),
	}
	if x.dir == "" {
		return fresh, nil
	}

	base := x.path(tenantID)
	if _, err := os.Stat(base + ".meta"); errors.Is(err, os.ErrNotExist) {
		return fresh, nil
	}
	graph, err := LoadGraph(base)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", domain.TenantIndexName(tenantID), err)
	}
	if graph.dims != x.embedder.Dimensions() {
		logger.Warn("Vector index %s has %d dimensions, model %s has %d; starting empty",
			domain.TenantIndexName(tenantID), graph.dims, x.embedder.ModelName(), x.embedder.Dimensions())
		return fresh, nil
	}

	docs := make(map[string]domain.Document)
	f, err := os.Open(base + ".docs")
	if err != nil {
		return nil, fmt.Errorf("open documents: %w", err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return &tenantIndex{graph: graph, docs: docs}, nil
}

func (x *Index) path(tenantID string) string {
	return filepath.Join(x.dir, domain.TenantIndexName(tenantID)+".hnsw")
}

// Upsert embeds the document and replaces any earlier version.
func (x *Index) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	t, err := x.tenant(doc.TenantID)
	if err != nil {
		return err
	}

	vec, err := x.embedder.Embed(ctx, embeddingText(doc))
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.graph.Add(ctx, doc.ID, vec); err != nil {
		return fmt.Errorf("add document %s: %w", doc.ID, err)
	}
	t.docs[doc.ID] = *doc
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (x *Index) Delete(ctx context.Context, tenantID, id string) error {
	t, err := x.tenant(tenantID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.graph.Delete(ctx, id); err != nil {
		return err
	}
	delete(t.docs, id)
	return nil
}

// Search embeds the query text and returns the nearest documents that pass
// the filter. Full-text match nodes are ignored since similarity replaces
// them.
func (x *Index) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchResult, error) {
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	filter := withoutMatch(q.Filter)
	if filter.MatchesNothing() {
		return []domain.SearchResult{}, nil
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = strings.TrimSpace(q.Filter.MatchText())
	}
	if text == "" {
		return []domain.SearchResult{}, nil
	}

	t, err := x.tenant(q.TenantID)
	if err != nil {
		return nil, err
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	offset := max(q.Offset, 0)
	want := offset + limit

	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []domain.SearchResult
	for k := want * oversample; ; k *= 2 {
		hits, err := t.graph.Search(ctx, vec, k)
		if err != nil {
			return nil, err
		}
		results = results[:0]
		for _, h := range hits {
			doc, ok := t.docs[h.ID]
			if !ok || !filter.Matches(&doc) {
				continue
			}
			results = append(results, domain.SearchResult{Document: doc, Score: h.Similarity})
		}
		if len(results) >= want || len(hits) < k {
			break
		}
	}

	if offset >= len(results) {
		return []domain.SearchResult{}, nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close saves tenant graphs when a directory is configured and closes the
// embedding service.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true

	var errs []error
	for id, t := range x.tenants {
		if x.dir != "" {
			if err := x.save(id, t); err != nil {
				errs = append(errs, fmt.Errorf("save %s: %w", domain.TenantIndexName(id), err))
			}
		}
		_ = t.graph.Close()
	}
	x.tenants = nil
	return errors.Join(append(errs, x.embedder.Close())...)
}

func (x *Index) save(tenantID string, t *tenantIndex) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	base := x.path(tenantID)
	if err := t.graph.Save(base); err != nil {
		return err
	}
	return writeAtomic(base+".docs", func(f *os.File) error {
		return gob.NewEncoder(f).Encode(t.docs)
	})
}

// embeddingText is the text a document is embedded from.
func embeddingText(doc *domain.Document) string {
	if doc.Title == "" {
		return doc.Content
	}
	return doc.Title + "\n" + doc.Content
}

// withoutMatch replaces full-text match nodes with match-all.
func withoutMatch(f domain.Filter) domain.Filter {
	if f.Op == domain.OpMatch {
		return domain.All()
	}
	if len(f.Children) == 0 {
		return f
	}
	out := f
	out.Children = make([]domain.Filter, len(f.Children))
	for i, c := range f.Children {
		out.Children[i] = withoutMatch(c)
	}
	return out
}
