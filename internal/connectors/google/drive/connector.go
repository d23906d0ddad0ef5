package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-sync/internal/connectors/google"
	"github.com/custodia-labs/sercha-sync/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches files from Google Drive folders.
type Connector struct {
	connectionID string
	config       *Config
	svc          *drive.Service
	limiter      *throttle.Throttle
	log          *logger.Entry

	mu     sync.Mutex
	closed bool
}

// New creates a Drive connector over svc.
func New(cfg *domain.ConnectionConfig, svc *drive.Service, limiter *throttle.Throttle, batchSize int) (*Connector, error) {
	config, err := ParseConfig(cfg, batchSize)
	if err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = throttle.New(google.DriveLimits)
	}
	return &Connector{
		connectionID: cfg.ID,
		config:       config,
		svc:          svc,
		limiter:      limiter,
		log:          logger.With(logger.Fields{"kind": domain.KindGoogleDrive, "connection": cfg.ID}),
	}, nil
}

// Kind returns the source kind.
func (c *Connector) Kind() domain.SourceKind {
	return domain.KindGoogleDrive
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsUpdates:      true,
		SupportsBinary:       true,
		SupportsHierarchy:    true,
		RequiresAuth:         true,
		SupportsRateLimiting: true,
	}
}

// Validate checks every root folder is reachable.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	for _, id := range c.config.FolderIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		file, err := c.svc.Files.Get(id).
			Fields("id, mimeType").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("%w: folder %s: %w", domain.ErrConnectorValidation, id, google.Observe(c.limiter, err))
		}
		if file.MimeType != MimeTypeFolder {
			return fmt.Errorf("%w: %s is not a folder", domain.ErrConnectorValidation, id)
		}
	}
	return nil
}

// FetchBatch walks the folder tree on the first runs, then reads changes.
func (c *Connector) FetchBatch(ctx context.Context, cur string) (*domain.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	pos, err := DecodeCursor(cur, c.config.FolderIDs)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	var hasMore bool
	if pos.Walked {
		records, hasMore, err = c.changes(ctx, pos)
		if errors.Is(err, domain.ErrInvalidCursor) {
			c.log.Warn("change token expired, walking the folder tree again")
			pos = NewCursor(c.config.FolderIDs)
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}
	if !pos.Walked {
		if pos.StartPageToken == "" {
			if pos.StartPageToken, err = c.startPageToken(ctx); err != nil {
				return nil, err
			}
		}
		if records, err = c.walk(ctx, pos); err != nil {
			return nil, err
		}
		hasMore = !pos.Walked

		// A walk ending on folders without syncable files yields nothing;
		// an empty batch keeps the old cursor, so read the change log now
		// or the finished walk is never recorded.
		if pos.Walked && len(records) == 0 {
			if records, hasMore, err = c.changes(ctx, pos); err != nil {
				return nil, err
			}
		}
	}

	if len(records) == 0 {
		return &domain.Batch{NextCursor: cur}, nil
	}
	next, err := pos.Encode()
	if err != nil {
		return nil, err
	}
	return &domain.Batch{Records: records, NextCursor: next, HasMore: hasMore}, nil
}

func (c *Connector) startPageToken(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.svc.Changes.GetStartPageToken().SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive start page token: %w", google.Observe(c.limiter, err))
	}
	return resp.StartPageToken, nil
}

// walk lists folder pages until one yields records or the tree is done.
func (c *Connector) walk(ctx context.Context, pos *Cursor) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	for len(pos.Pending) > 0 && len(records) == 0 {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		folder := pos.Pending[0]
		call := c.svc.Files.List().
			Q(childrenQuery(folder)).
			PageSize(c.config.PageSize).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pos.PageToken != "" {
			call = call.PageToken(pos.PageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("drive list %s: %w", folder, google.Observe(c.limiter, err))
		}

		for _, file := range list.Files {
			switch {
			case file.MimeType == MimeTypeFolder:
				if !pos.knows(file.Id) {
					pos.track(file.Id)
					pos.Pending = append(pos.Pending, file.Id)
				}
			case ShouldSyncFile(file, c.config):
				records = append(records, FileToRecord(file))
			}
		}

		if list.NextPageToken != "" {
			pos.PageToken = list.NextPageToken
		} else {
			pos.Pending = pos.Pending[1:]
			pos.PageToken = ""
		}
	}
	if len(pos.Pending) == 0 {
		pos.Pending = nil
		pos.Walked = true
	}
	return records, nil
}

// changes reads change pages until one yields records or the log is
// exhausted. It reports whether more pages remain.
func (c *Connector) changes(ctx context.Context, pos *Cursor) ([]domain.RawRecord, bool, error) {
	var records []domain.RawRecord
	seen := make(map[string]int)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
		resp, err := c.svc.Changes.List(pos.StartPageToken).
			PageSize(c.config.PageSize).
			Fields(googleapi.Field("nextPageToken, newStartPageToken, changes(fileId, removed, file(" + fileFields + "))")).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return nil, false, fmt.Errorf("drive changes: %w", google.Observe(c.limiter, err))
		}

		for _, ch := range resp.Changes {
			file := ch.File
			if ch.Removed || file == nil || !c.tracked(pos, file) {
				continue
			}
			if file.MimeType == MimeTypeFolder {
				pos.track(file.Id)
				continue
			}
			if !ShouldSyncFile(file, c.config) {
				continue
			}
			if i, ok := seen[file.Id]; ok {
				records[i] = FileToRecord(file)
				continue
			}
			seen[file.Id] = len(records)
			records = append(records, FileToRecord(file))
		}

		if resp.NextPageToken == "" {
			pos.StartPageToken = resp.NewStartPageToken
			return records, false, nil
		}
		pos.StartPageToken = resp.NextPageToken
		if len(records) > 0 {
			return records, true, nil
		}
	}
}

func (c *Connector) tracked(pos *Cursor, file *drive.File) bool {
	for _, p := range file.Parents {
		if pos.knows(p) {
			return true
		}
	}
	return false
}

// RawBytes downloads a file, exporting Workspace documents to text.
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

	sourceMIME, _ := rec.Metadata[metaSourceMIME].(string)
	var (
		body  io.ReadCloser
		limit int64 = MaxDownloadSize
	)
	if export := ExportMIME(sourceMIME); export != "" {
		resp, err := c.svc.Files.Export(rec.ID, export).Context(ctx).Download()
		if err != nil {
			return nil, c.downloadError(rec, err)
		}
		body, limit = resp.Body, MaxExportSize
	} else {
		resp, err := c.svc.Files.Get(rec.ID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return nil, c.downloadError(rec, err)
		}
		body = resp.Body
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: drive read %s: %w", domain.ErrTransient, rec.ID, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: drive file %s exceeds %d bytes", domain.ErrRecordDecode, rec.ID, limit)
	}
	return data, nil
}

// downloadError maps download failures. A file deleted or made private
// since it was listed only affects its own record.
func (c *Connector) downloadError(rec *domain.RawRecord, err error) error {
	wrapped := google.Observe(c.limiter, err)
	if google.IsNotFound(err) || errors.Is(wrapped, domain.ErrAuthInvalid) {
		return fmt.Errorf("%w: drive file %s: %w", domain.ErrRecordDecode, rec.ID, wrapped)
	}
	return fmt.Errorf("drive download %s: %w", rec.ID, wrapped)
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
