package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Index implements both index ports.
var (
	_ driven.PrimaryIndex   = (*Index)(nil)
	_ driven.SecondaryIndex = (*Index)(nil)
)

// Index is an in-memory document index evaluating filters with
// domain.Filter.Matches. It serves as either index and can be told to fail
// writes, so partial dual-index writes can be reproduced.
type Index struct {
	name string

	mu       sync.RWMutex
	tenants  map[string]map[string]domain.Document
	failures []error
	writes   int
	closed   bool
}

// NewIndex creates an empty index. The name is reported by Name.
func NewIndex(name string) *Index {
	return &Index{
		name:    name,
		tenants: make(map[string]map[string]domain.Document),
	}
}

// Name identifies the index.
func (x *Index) Name() string {
	return x.name
}

// FailNext makes the next len(errs) write calls return errs in order.
// A nil entry lets that call succeed.
func (x *Index) FailNext(errs ...error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.failures = append(x.failures, errs...)
}

// Writes returns how many Upsert and Delete calls were made.
func (x *Index) Writes() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.writes
}

// Upsert adds or replaces a document.
func (x *Index) Upsert(ctx context.Context, doc *domain.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.beginWrite(ctx); err != nil {
		return err
	}
	if x.tenants[doc.TenantID] == nil {
		x.tenants[doc.TenantID] = make(map[string]domain.Document)
	}
	x.tenants[doc.TenantID][doc.ID] = *doc
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (x *Index) Delete(ctx context.Context, tenantID, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.beginWrite(ctx); err != nil {
		return err
	}
	delete(x.tenants[tenantID], id)
	return nil
}

// beginWrite must be called with the lock held.
func (x *Index) beginWrite(ctx context.Context) error {
	x.writes++
	if x.closed {
		return fmt.Errorf("%w: index %s closed", domain.ErrIndexUnavailable, x.name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(x.failures) > 0 {
		err := x.failures[0]
		x.failures = x.failures[1:]
		return err
	}
	return nil
}

// Get returns a document by id.
func (x *Index) Get(_ context.Context, tenantID, id string) (*domain.Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc, ok := x.tenants[tenantID][id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return &doc, nil
}

// Search returns documents matching the filter, scored by query term
// occurrences and ordered by score then id.
func (x *Index) Search(_ context.Context, q domain.SearchQuery) ([]domain.SearchResult, error) {
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(q.Text))
	var results []domain.SearchResult
	for _, doc := range x.tenants[q.TenantID] {
		if !q.Filter.Matches(&doc) {
			continue
		}
		results = append(results, domain.SearchResult{Document: doc, Score: score(&doc, terms)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	return page(results, q.Offset, q.Limit), nil
}

// Count returns the number of documents in a tenant's index.
func (x *Index) Count(_ context.Context, tenantID string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.tenants[tenantID]), nil
}

// Close marks the index closed; later writes fail.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}

func score(doc *domain.Document, terms []string) float64 {
	text := strings.ToLower(doc.Title + " " + doc.Description + " " + doc.Content)
	var s float64
	for _, t := range terms {
		s += float64(strings.Count(text, t))
	}
	return s
}

func page(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	results = results[offset:]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
