package bleveindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.PrimaryIndex = (*Index)(nil)

// tenantPattern keeps tenant ids safe to use as directory names.
var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Index is the primary index. It holds one bleve index per tenant.
type Index struct {
	dir string

	mu      sync.RWMutex
	tenants map[string]bleve.Index
	closed  bool
}

// New opens the primary index rooted at dir. Tenant indices are opened
// lazily. An empty dir keeps everything in memory.
func New(dir string) (*Index, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create index directory %s: %w", dir, err)
		}
	}
	return &Index{dir: dir, tenants: make(map[string]bleve.Index)}, nil
}

// tenant returns the tenant's index, opening or creating it on first use.
func (x *Index) tenant(tenantID string) (bleve.Index, error) {
	if !tenantPattern.MatchString(tenantID) {
		return nil, fmt.Errorf("%w: invalid tenant id %q", domain.ErrInvalidInput, tenantID)
	}

	x.mu.RLock()
	idx, ok := x.tenants[tenantID]
	closed := x.closed
	x.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("%w: primary index closed", domain.ErrIndexUnavailable)
	}
	if ok {
		return idx, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, fmt.Errorf("%w: primary index closed", domain.ErrIndexUnavailable)
	}
	if idx, ok := x.tenants[tenantID]; ok {
		return idx, nil
	}

	idx, err := x.open(domain.TenantIndexName(tenantID))
	if err != nil {
		return nil, err
	}
	x.tenants[tenantID] = idx
	return idx, nil
}

func (x *Index) open(name string) (bleve.Index, error) {
	if x.dir == "" {
		idx, err := bleve.NewMemOnly(newIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index %s: %w", name, err)
		}
		return idx, nil
	}

	path := filepath.Join(x.dir, name)
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		logger.Debug("Creating index %s", path)
		idx, err = bleve.New(path, newIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}
	return idx, nil
}

// Upsert adds or replaces a document. The document id is the bleve id, so
// writing it again replaces the earlier version.
func (x *Index) Upsert(_ context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	idx, err := x.tenant(doc.TenantID)
	if err != nil {
		return err
	}
	if err := idx.Index(doc.ID, toFields(doc)); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (x *Index) Delete(_ context.Context, tenantID, id string) error {
	idx, err := x.tenant(tenantID)
	if err != nil {
		return err
	}
	if err := idx.Delete(id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Get returns a document by id.
func (x *Index) Get(ctx context.Context, tenantID, id string) (*domain.Document, error) {
	idx, err := x.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{id}), 1, 0, false)
	req.Fields = []string{"*"}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	doc := fromFields(res.Hits[0].ID, res.Hits[0].Fields)
	return &doc, nil
}

// Search returns documents matching the query's filter, best first.
func (x *Index) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchResult, error) {
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	idx, err := x.tenant(q.TenantID)
	if err != nil {
		return nil, err
	}

	bq, err := renderFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	req := bleve.NewSearchRequestOptions(bq, limit, max(q.Offset, 0), false)
	req.Fields = []string{"*"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", domain.TenantIndexName(q.TenantID), err)
	}

	results := make([]domain.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, domain.SearchResult{
			Document: fromFields(hit.ID, hit.Fields),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// Count returns the number of documents in a tenant's index.
func (x *Index) Count(_ context.Context, tenantID string) (int, error) {
	idx, err := x.tenant(tenantID)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", domain.TenantIndexName(tenantID), err)
	}
	return int(n), nil
}

// Tenants returns the tenants with an open index, sorted.
func (x *Index) Tenants() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.tenants))
	for t := range x.tenants {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Close closes every tenant index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true

	var errs []error
	for tenant, idx := range x.tenants {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", domain.TenantIndexName(tenant), err))
		}
	}
	x.tenants = nil
	return errors.Join(errs...)
}

func toFields(doc *domain.Document) map[string]any {
	fields := map[string]any{
		domain.FieldID:          doc.ID,
		domain.FieldTitle:       doc.Title,
		domain.FieldDescription: doc.Description,
		domain.FieldContent:     doc.Content,
		domain.FieldCategory:    doc.Category,
		domain.FieldTenantID:    doc.TenantID,
		domain.FieldFileURL:     doc.FileURL,
		domain.FieldImage:       doc.Image,
		fieldConnectionID:       doc.ConnectionID,
		fieldRecordID:           doc.RecordID,
		fieldFileSizeMB:         doc.FileSizeMB,
		fieldChunkIndex:         float64(doc.ChunkIndex),
	}
	if !doc.UploadedAt.IsZero() {
		fields[fieldUploadedAt] = doc.UploadedAt.UTC()
	}
	return fields
}

func fromFields(id string, fields map[string]any) domain.Document {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	num := func(name string) float64 {
		f, _ := fields[name].(float64)
		return f
	}

	doc := domain.Document{
		ID:           id,
		Title:        str(domain.FieldTitle),
		Description:  str(domain.FieldDescription),
		Content:      str(domain.FieldContent),
		Category:     str(domain.FieldCategory),
		TenantID:     str(domain.FieldTenantID),
		FileURL:      str(domain.FieldFileURL),
		Image:        str(domain.FieldImage),
		ConnectionID: str(fieldConnectionID),
		RecordID:     str(fieldRecordID),
		FileSizeMB:   num(fieldFileSizeMB),
		ChunkIndex:   int(num(fieldChunkIndex)),
	}
	switch v := fields[fieldUploadedAt].(type) {
	case time.Time:
		doc.UploadedAt = v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			doc.UploadedAt = t
		}
	}
	return doc
}
