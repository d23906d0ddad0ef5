package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates incremental synchronisation of connections
// into both indices. A batch's cursor is committed only after every
// document of the batch reached both indices.
type SyncOrchestrator struct {
	store     driven.ConnectionStore
	factory   driven.ConnectorFactory
	processor *RecordProcessor
	writer    *DualIndexWriter
	lock      *RunLock
	settings  domain.SyncSettings

	// Status tracking
	mu       sync.RWMutex
	statuses map[string]*driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
// A nil lock gets an in-process lock using settings.LockDir.
func NewSyncOrchestrator(
	store driven.ConnectionStore,
	factory driven.ConnectorFactory,
	processor *RecordProcessor,
	writer *DualIndexWriter,
	lock *RunLock,
	settings domain.SyncSettings,
) *SyncOrchestrator {
	if settings.Workers < 1 {
		settings.Workers = domain.DefaultSyncWorkers
	}
	if lock == nil {
		lock = NewRunLock(settings.LockDir)
	}
	return &SyncOrchestrator{
		store:     store,
		factory:   factory,
		processor: processor,
		writer:    writer,
		lock:      lock,
		settings:  settings,
		statuses:  make(map[string]*driving.SyncStatus),
	}
}

// Sync runs one connection until its source has no more records.
func (o *SyncOrchestrator) Sync(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.RunReport, error) {
	release, err := o.lock.TryLock(domain.ConnectionKey(kind, tenantID, id))
	if err != nil {
		return nil, err
	}
	defer release()

	// 1. Load the configuration under the lock so the cursor is the latest
	// committed one.
	cfg, err := o.store.Get(ctx, tenantID, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	report := &domain.RunReport{
		ConnectionID: cfg.ID,
		TenantID:     cfg.TenantID,
		Kind:         cfg.Kind,
		StartCursor:  cfg.Cursor,
		EndCursor:    cfg.Cursor,
		StartedAt:    time.Now(),
	}
	log := logger.With(logger.Fields{
		"connection": cfg.ID,
		"tenant":     cfg.TenantID,
		"kind":       string(cfg.Kind),
	})
	o.begin(cfg)

	err = o.run(ctx, cfg, report, log)
	report.EndedAt = time.Now()
	if err != nil {
		report.State = domain.StateFailed
		o.finish(cfg.Key(), report, err)
		log.Error("Sync failed after %d batches: %v", report.Batches, err)
		return report, err
	}

	report.State = domain.StateIdle
	o.finish(cfg.Key(), report, nil)
	log.Info("Sync complete: %d records, %d documents, %d skipped in %s",
		report.Records, report.Documents, report.Skipped, report.Duration().Round(time.Millisecond))
	return report, nil
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) run(ctx context.Context, cfg *domain.ConnectionConfig, report *domain.RunReport, log *logger.Entry) error {
	// 2. Create and validate connector
	if o.factory == nil {
		return fmt.Errorf("create connector: connector factory not configured")
	}
	conn, err := o.factory.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer conn.Close()

	if err := o.bounded(ctx, conn.Validate); err != nil {
		if errors.Is(err, domain.ErrConnectorValidation) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}

	// 3. Prepare the source once per connection
	if err := o.bootstrap(ctx, conn, cfg); err != nil {
		return err
	}

	// 4. Batch loop
	cursor := cfg.Cursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		o.setState(cfg.Key(), domain.StateFetching)
		var batch *domain.Batch
		err := o.bounded(ctx, func(c context.Context) error {
			var fetchErr error
			batch, fetchErr = conn.FetchBatch(c, cursor)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("fetch batch: %w", err)
		}
		if batch.Empty() {
			log.Debug("No new records after cursor")
			return nil
		}
		report.Records += len(batch.Records)

		o.setState(cfg.Key(), domain.StateProcessing)
		docs, err := o.process(ctx, conn, cfg, batch.Records, report, log)
		if err != nil {
			return err
		}

		o.setState(cfg.Key(), domain.StateWriting)
		if err := o.write(ctx, docs); err != nil {
			return err
		}
		report.Documents += len(docs)

		o.setState(cfg.Key(), domain.StateCursorAdvance)
		if err := o.store.SaveCursor(context.WithoutCancel(ctx), cfg.TenantID, cfg.Kind, cfg.ID, batch.NextCursor); err != nil {
			return fmt.Errorf("save cursor: %w", err)
		}
		cursor = batch.NextCursor
		cfg.Cursor = cursor
		report.EndCursor = cursor
		report.Batches++
		o.progress(cfg.Key(), report)
		log.Debug("Committed batch %d: %d records, %d documents", report.Batches, len(batch.Records), len(docs))

		if !batch.HasMore {
			return nil
		}
	}
}

func (o *SyncOrchestrator) bootstrap(ctx context.Context, conn driven.Connector, cfg *domain.ConnectionConfig) error {
	b, ok := conn.(driven.Bootstrapper)
	if !ok || !conn.Capabilities().NeedsBootstrap || cfg.Param(domain.ParamBootstrapped) == "true" {
		return nil
	}
	if err := o.bounded(ctx, func(c context.Context) error { return b.Bootstrap(c, cfg) }); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := o.store.SaveParams(ctx, cfg.TenantID, cfg.Kind, cfg.ID, cfg.Params); err != nil {
		return fmt.Errorf("save bootstrapped connection: %w", err)
	}
	return nil
}

// process runs the records of a batch concurrently. Record failures are
// tallied as skips; a fatal failure cancels the remaining records.
func (o *SyncOrchestrator) process(
	ctx context.Context,
	conn driven.Connector,
	cfg *domain.ConnectionConfig,
	records []domain.RawRecord,
	report *domain.RunReport,
	log *logger.Entry,
) ([]domain.Document, error) {
	perRecord := make([][]domain.Document, len(records))
	skips := make([]*SkipError, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := o.processor.Process(gctx, conn, cfg, &records[i])
			var skip *SkipError
			if errors.As(err, &skip) {
				skips[i] = skip
				return nil
			}
			if err != nil {
				return fmt.Errorf("process record %s: %w", records[i].ID, err)
			}
			perRecord[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []domain.Document
	for i := range records {
		if skips[i] != nil {
			report.AddSkip(skips[i].Reason)
			log.Debug("Skipping %s: %v", records[i].ID, skips[i].Err)
			continue
		}
		docs = append(docs, perRecord[i]...)
	}
	return docs, nil
}

// write sends every document through the dual-index writer. Documents
// already handed to the writer finish even when ctx is cancelled; no new
// ones start.
func (o *SyncOrchestrator) write(ctx context.Context, docs []domain.Document) error {
	results := make([]domain.WriteResult, len(docs))
	started := make([]bool, len(docs))

	var g errgroup.Group
	g.SetLimit(o.settings.Workers)
	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = o.writer.Upsert(ctx, &docs[i])
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i := range docs {
		if started[i] && !results[i].OK() {
			errs = append(errs, results[i].Err())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("write batch: %w", errors.Join(errs...))
	}
	return ctx.Err()
}

// bounded runs fn under the fetch timeout.
func (o *SyncOrchestrator) bounded(ctx context.Context, fn func(context.Context) error) error {
	if o.settings.FetchTimeout <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, o.settings.FetchTimeout)
	defer cancel()
	return fn(c)
}

// SyncAll runs every configured connection in parallel.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) ([]domain.RunReport, error) {
	configs, err := o.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	reports := make([]*domain.RunReport, len(configs))
	errs := make([]error, len(configs))

	var g errgroup.Group
	g.SetLimit(o.settings.Workers)
	for i := range configs {
		cfg := configs[i]
		g.Go(func() error {
			reports[i], errs[i] = o.Sync(ctx, cfg.TenantID, cfg.Kind, cfg.ID)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("sync %s: %w", cfg.Key(), errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.RunReport
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}

// Status returns the state of a connection's current or last run.
func (o *SyncOrchestrator) Status(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*driving.SyncStatus, error) {
	cfg, err := o.store.Get(ctx, tenantID, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.statuses[cfg.Key()]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}
	return &driving.SyncStatus{
		ConnectionKey: cfg.Key(),
		State:         domain.StateIdle,
		Cursor:        cfg.Cursor,
		LastSync:      cfg.LastSync,
	}, nil
}

func (o *SyncOrchestrator) begin(cfg *domain.ConnectionConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[cfg.Key()] = &driving.SyncStatus{
		ConnectionKey: cfg.Key(),
		Running:       true,
		State:         domain.StateIdle,
		Cursor:        cfg.Cursor,
		LastSync:      cfg.LastSync,
	}
}

func (o *SyncOrchestrator) setState(key string, state domain.RunState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.statuses[key]; ok {
		s.State = state
	}
}

func (o *SyncOrchestrator) progress(key string, report *domain.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.statuses[key]; ok {
		s.RecordsProcessed = report.Records
		s.DocumentsWritten = report.Documents
		s.Skipped = report.Skipped
		s.Cursor = report.EndCursor
		s.LastSync = time.Now()
	}
}

func (o *SyncOrchestrator) finish(key string, report *domain.RunReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.statuses[key]
	if !ok {
		return
	}
	s.Running = false
	s.State = report.State
	s.RecordsProcessed = report.Records
	s.DocumentsWritten = report.Documents
	s.Skipped = report.Skipped
	s.Cursor = report.EndCursor
	s.LastError = ""
	if err != nil {
		s.LastError = err.Error()
	}
}
