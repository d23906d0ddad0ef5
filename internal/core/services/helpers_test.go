package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/extractors"
	"github.com/custodia-labs/sercha-sync/internal/mimesniff"
	"github.com/custodia-labs/sercha-sync/internal/postprocessors/chunker"
)

// fakeConnector serves records in pages. The cursor is the index of the
// next record, so any cursor reproduces the same pages.
type fakeConnector struct {
	mu           sync.Mutex
	records      []domain.RawRecord
	pageSize     int
	rawBytes     map[string][]byte
	rawErr       map[string]error
	validateErr  error
	fetchErr     error
	needsBoot    bool
	bootstrapped int
	fetches      int
	closed       bool
}

func (c *fakeConnector) Kind() domain.SourceKind { return domain.KindSQL }

func (c *fakeConnector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{NeedsBootstrap: c.needsBoot}
}

func (c *fakeConnector) Validate(context.Context) error { return c.validateErr }

func (c *fakeConnector) FetchBatch(ctx context.Context, cursor string) (*domain.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCursor, cursor)
		}
		start = n
	}
	if start >= len(c.records) {
		return &domain.Batch{NextCursor: cursor}, nil
	}
	end := min(start+c.pageSize, len(c.records))
	return &domain.Batch{
		Records:    append([]domain.RawRecord(nil), c.records[start:end]...),
		NextCursor: strconv.Itoa(end),
		HasMore:    end < len(c.records),
	}, nil
}

func (c *fakeConnector) RawBytes(_ context.Context, rec *domain.RawRecord) ([]byte, error) {
	if err, ok := c.rawErr[rec.ID]; ok {
		return nil, err
	}
	if data, ok := c.rawBytes[rec.ID]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: no bytes for %s", domain.ErrRecordDecode, rec.ID)
}

func (c *fakeConnector) Bootstrap(_ context.Context, cfg *domain.ConnectionConfig) error {
	c.bootstrapped++
	cfg.SetParam(domain.ParamBootstrapped, "true")
	return nil
}

func (c *fakeConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// fakeFactory hands out the same connector for every config.
type fakeFactory struct {
	conn      driven.Connector
	createErr error
}

func (f *fakeFactory) Create(context.Context, *domain.ConnectionConfig) (driven.Connector, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.conn, nil
}

func (f *fakeFactory) Register(domain.SourceKind, driven.ConnectorBuilder) {}

func (f *fakeFactory) SupportedKinds() []domain.SourceKind { return []domain.SourceKind{domain.KindSQL} }

// textRecord is a record with inline text content.
func textRecord(id, text string) domain.RawRecord {
	return domain.RawRecord{ID: id, Title: "Doc " + id, Content: []byte(text), URL: "sql://docs/" + id}
}

// syncFixture wires an orchestrator over memory adapters.
type syncFixture struct {
	store     *memory.ConnectionStore
	primary   *memory.Index
	secondary *memory.Index
	conn      *fakeConnector
	cfg       *domain.ConnectionConfig
	orch      *SyncOrchestrator
}

func newSyncFixture(t *testing.T, conn *fakeConnector) *syncFixture {
	t.Helper()

	store := memory.NewConnectionStore()
	cfg := &domain.ConnectionConfig{
		ID:       "handbook",
		TenantID: "acme",
		Kind:     domain.KindSQL,
		Params:   map[string]string{domain.ParamDSN: "file::memory:", domain.ParamTable: "docs"},
	}
	require.NoError(t, store.Save(context.Background(), cfg))

	primary := memory.NewIndex("primary")
	secondary := memory.NewIndex("secondary")
	writer := NewDualIndexWriter(primary, secondary, WithRetryBase(0))
	processor := NewRecordProcessor(
		extractors.NewDefaultRegistry(domain.ExtractorSettings{}),
		mimesniff.New(),
		chunker.New(chunker.WithChunkSize(64)),
		0,
	)
	orch := NewSyncOrchestrator(store, &fakeFactory{conn: conn}, processor, writer, nil, domain.SyncSettings{Workers: 2})

	return &syncFixture{
		store:     store,
		primary:   primary,
		secondary: secondary,
		conn:      conn,
		cfg:       cfg,
		orch:      orch,
	}
}

func (f *syncFixture) sync(ctx context.Context) (*domain.RunReport, error) {
	return f.orch.Sync(ctx, f.cfg.TenantID, f.cfg.Kind, f.cfg.ID)
}

func (f *syncFixture) cursor(t *testing.T) string {
	t.Helper()
	cfg, err := f.store.Get(context.Background(), f.cfg.TenantID, f.cfg.Kind, f.cfg.ID)
	require.NoError(t, err)
	return cfg.Cursor
}

func (f *syncFixture) count(t *testing.T) (int, int) {
	t.Helper()
	p, err := f.primary.Count(context.Background(), f.cfg.TenantID)
	require.NoError(t, err)
	s, err := f.secondary.Count(context.Background(), f.cfg.TenantID)
	require.NoError(t, err)
	return p, s
}

// routingFactory picks a connector by kind.
type routingFactory struct {
	byKind map[domain.SourceKind]*fakeConnector
}

func (f *routingFactory) Create(_ context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
	conn, ok := f.byKind[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, cfg.Kind)
	}
	return conn, nil
}

func (f *routingFactory) Register(domain.SourceKind, driven.ConnectorBuilder) {}

func (f *routingFactory) SupportedKinds() []domain.SourceKind { return nil }
