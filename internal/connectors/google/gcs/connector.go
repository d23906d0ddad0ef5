// Package gcs implements a connector for Google Cloud Storage buckets.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/storage/v1"

	"github.com/custodia-labs/sercha-sync/internal/connectors/google"
	"github.com/custodia-labs/sercha-sync/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Limits.
const (
	DefaultBatchSize = 100
	MaxDownloadSize  = 64 * 1024 * 1024
	listPageSize     = 1000
)

const objectFields = "nextPageToken, items(name, contentType, size, updated, generation)"

// Connector lists objects of one bucket, optionally below a prefix.
type Connector struct {
	bucket    string
	prefix    string
	batchSize int
	svc       *storage.Service
	limiter   *throttle.Throttle
	log       *logger.Entry

	mu      sync.Mutex
	closed  bool
	listing []object // sorted by (updated, name); nil until the first list
}

// New creates a connector over svc.
func New(cfg *domain.ConnectionConfig, svc *storage.Service, limiter *throttle.Throttle, batchSize int) (*Connector, error) {
	bucket := cfg.Param(domain.ParamBucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: gcs requires %q", domain.ErrInvalidConfig, domain.ParamBucket)
	}
	if n, err := strconv.Atoi(cfg.Param(domain.ParamBatchSize)); err == nil && n > 0 {
		batchSize = n
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limiter == nil {
		limiter = throttle.New(google.StorageLimits)
	}
	return &Connector{
		bucket:    bucket,
		prefix:    cfg.Param(domain.ParamPrefix),
		batchSize: batchSize,
		svc:       svc,
		limiter:   limiter,
		log:       logger.With(logger.Fields{"kind": domain.KindGCS, "connection": cfg.ID}),
	}, nil
}

// Kind returns the source kind.
func (c *Connector) Kind() domain.SourceKind {
	return domain.KindGCS
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsUpdates:      true,
		SupportsBinary:       true,
		RequiresAuth:         true,
		SupportsRateLimiting: true,
	}
}

// Validate checks the bucket is readable.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.svc.Objects.List(c.bucket).
		Prefix(c.prefix).
		MaxResults(1).
		Fields("items(name)").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: bucket %s: %w", domain.ErrConnectorValidation, c.bucket, google.Observe(c.limiter, err))
	}
	return nil
}

// object is a listed object with its parsed update time.
type object struct {
	*storage.Object
	updated time.Time
}

// FetchBatch returns the objects after the cursor in (updated, name) order.
// The bucket is listed once and later batches page through that listing;
// it is listed again only when nothing after the cursor remains in it.
func (c *Connector) FetchBatch(ctx context.Context, cur string) (*domain.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	pos, err := DecodeCursor(cur)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	pending := after(c.listing, pos)
	c.mu.Unlock()
	if len(pending) == 0 {
		listing, err := c.list(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.listing = listing
		c.mu.Unlock()
		pending = after(listing, pos)
	}
	if len(pending) == 0 {
		return &domain.Batch{NextCursor: cur}, nil
	}

	hasMore := len(pending) > c.batchSize
	if hasMore {
		pending = pending[:c.batchSize]
	}
	records := make([]domain.RawRecord, 0, len(pending))
	for _, obj := range pending {
		records = append(records, c.record(obj))
	}

	last := pending[len(pending)-1]
	pos.Advance(last.updated, last.Name)
	next, err := pos.Encode()
	if err != nil {
		return nil, err
	}
	return &domain.Batch{Records: records, NextCursor: next, HasMore: hasMore}, nil
}

// list reads every object under the prefix, sorted by (updated, name).
// Objects with an unparseable update time are logged and left out.
func (c *Connector) list(ctx context.Context) ([]object, error) {
	listing := []object{}
	call := c.svc.Objects.List(c.bucket).
		Prefix(c.prefix).
		MaxResults(listPageSize).
		Fields(googleapi.Field(objectFields))
	err := call.Pages(ctx, func(page *storage.Objects) error {
		for _, obj := range page.Items {
			if strings.HasSuffix(obj.Name, "/") {
				continue
			}
			updated, err := time.Parse(time.RFC3339Nano, obj.Updated)
			if err != nil {
				c.log.Warn("skipping object %s: updated %q: %v", obj.Name, obj.Updated, err)
				continue
			}
			listing = append(listing, object{Object: obj, updated: updated})
		}
		return c.limiter.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("gcs list %s: %w", c.bucket, google.Observe(c.limiter, err))
	}
	sort.Slice(listing, func(i, j int) bool {
		if !listing[i].updated.Equal(listing[j].updated) {
			return listing[i].updated.Before(listing[j].updated)
		}
		return listing[i].Name < listing[j].Name
	})
	return listing, nil
}

// after returns the tail of a sorted listing that sorts after pos.
func after(listing []object, pos *Cursor) []object {
	i := sort.Search(len(listing), func(i int) bool {
		return pos.Before(listing[i].updated, listing[i].Name)
	})
	return listing[i:]
}

func (c *Connector) record(obj object) domain.RawRecord {
	return domain.RawRecord{
		ID:         obj.Name,
		Name:       path.Base(obj.Name),
		Title:      path.Base(obj.Name),
		MIMEType:   obj.ContentType,
		Size:       int64(obj.Size),
		ModifiedAt: obj.updated.UTC(),
		URL:        ObjectURL(c.bucket, obj.Name),
		Metadata: map[string]any{
			"bucket":     c.bucket,
			"generation": obj.Generation,
		},
	}
}

// ObjectURL returns the console link of an object.
func ObjectURL(bucket, name string) string {
	return "https://storage.cloud.google.com/" + bucket + "/" + (&url.URL{Path: name}).EscapedPath()
}

// RawBytes downloads an object.
func (c *Connector) RawBytes(ctx context.Context, rec *domain.RawRecord) ([]byte, error) {
	if rec.HasInlineContent() {
		return rec.Content, nil
	}
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Objects.Get(c.bucket, rec.ID).Context(ctx).Download()
	if err != nil {
		wrapped := google.Observe(c.limiter, err)
		if errors.Is(wrapped, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: gcs object %s: %w", domain.ErrRecordDecode, rec.ID, wrapped)
		}
		return nil, fmt.Errorf("gcs download %s: %w", rec.ID, wrapped)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: gcs read %s: %w", domain.ErrTransient, rec.ID, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("%w: gcs object %s exceeds %d bytes", domain.ErrRecordDecode, rec.ID, MaxDownloadSize)
	}
	return data, nil
}

// Close releases the connector.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	return nil
}
