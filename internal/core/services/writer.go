package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// DefaultRetryBase is the first backoff delay between write attempts.
const DefaultRetryBase = 200 * time.Millisecond

// DualIndexWriter writes documents to the primary and secondary indices.
// Each index is retried independently; the caller decides what a partial
// write means.
type DualIndexWriter struct {
	primary   driven.PrimaryIndex
	secondary driven.SecondaryIndex

	timeout     time.Duration
	maxAttempts int
	retryBase   time.Duration
	sleep       func(time.Duration)
}

// WriterOption configures a DualIndexWriter.
type WriterOption func(*DualIndexWriter)

// WithWriterTimeout bounds every index call.
func WithWriterTimeout(d time.Duration) WriterOption {
	return func(w *DualIndexWriter) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithMaxAttempts sets the number of tries per index.
func WithMaxAttempts(n int) WriterOption {
	return func(w *DualIndexWriter) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithRetryBase sets the first backoff delay. Later delays double.
func WithRetryBase(d time.Duration) WriterOption {
	return func(w *DualIndexWriter) {
		if d >= 0 {
			w.retryBase = d
		}
	}
}

// NewDualIndexWriter creates a writer. A nil secondary index disables it:
// writes to it count as succeeded without being attempted and every result
// is marked SecondarySkipped.
func NewDualIndexWriter(primary driven.PrimaryIndex, secondary driven.SecondaryIndex, opts ...WriterOption) *DualIndexWriter {
	w := &DualIndexWriter{
		primary:     primary,
		secondary:   secondary,
		timeout:     domain.DefaultWriterTimeout,
		maxAttempts: domain.DefaultWriterMaxAttempts,
		retryBase:   DefaultRetryBase,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	if secondary == nil {
		logger.Info("No secondary index configured; documents are written to the primary only")
	}
	return w
}

// Upsert writes doc to both indices. The write is not interrupted by
// cancellation of ctx; every attempt carries its own deadline instead.
func (w *DualIndexWriter) Upsert(ctx context.Context, doc *domain.Document) domain.WriteResult {
	result := domain.WriteResult{DocumentID: doc.ID}
	if err := doc.Validate(); err != nil {
		result.PrimaryErr = err
		result.SecondaryErr = err
		return result
	}

	w.both(ctx, &result,
		func(c context.Context) error { return w.primary.Upsert(c, doc) },
		func(c context.Context) error { return w.secondary.Upsert(c, doc) },
	)
	return result
}

// Delete removes a document from both indices.
func (w *DualIndexWriter) Delete(ctx context.Context, tenantID, id string) domain.WriteResult {
	result := domain.WriteResult{DocumentID: id}
	if tenantID == "" || id == "" {
		err := fmt.Errorf("%w: tenant and document id are required", domain.ErrInvalidInput)
		result.PrimaryErr = err
		result.SecondaryErr = err
		return result
	}

	w.both(ctx, &result,
		func(c context.Context) error { return w.primary.Delete(c, tenantID, id) },
		func(c context.Context) error { return w.secondary.Delete(c, tenantID, id) },
	)
	return result
}

func (w *DualIndexWriter) both(ctx context.Context, result *domain.WriteResult, primary, secondary func(context.Context) error) {
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		result.PrimaryAttempts, result.PrimaryErr = w.retry(detached, "primary", primary)
		return nil
	})
	if w.secondary != nil {
		g.Go(func() error {
			result.SecondaryAttempts, result.SecondaryErr = w.retry(detached, w.secondary.Name(), secondary)
			return nil
		})
	} else {
		result.SecondarySkipped = true
	}
	_ = g.Wait()

	result.Outcome = domain.NewWriteOutcome(result.PrimaryErr == nil, result.SecondaryErr == nil)
	if !result.OK() {
		logger.Warn("Write of %s ended %s: %v", result.DocumentID, result.Outcome, result.Err())
	}
}

// retry calls fn until it succeeds, fails permanently, or attempts run out.
func (w *DualIndexWriter) retry(ctx context.Context, index string, fn func(context.Context) error) (int, error) {
	delay := w.retryBase
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err = w.call(ctx, fn)
		if err == nil {
			return attempt, nil
		}
		if !retryable(err) || attempt == w.maxAttempts {
			return attempt, err
		}
		logger.Debug("%s index attempt %d failed, retrying in %s: %v", index, attempt, delay, err)
		w.sleep(delay)
		delay *= 2
	}
	return w.maxAttempts, err
}

func (w *DualIndexWriter) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return fn(callCtx)
}

func retryable(err error) bool {
	return domain.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
}
