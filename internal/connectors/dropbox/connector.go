// Package dropbox implements a connector for Dropbox folders.
//
// The connector lists the folder recursively and hands Dropbox's own
// list_folder cursor to the orchestrator as its cursor, so incremental
// runs continue with list_folder/continue.
package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-sync/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Limits paces calls below the per-app rate Dropbox enforces.
var Limits = throttle.Limits{PerSecond: 10, Burst: 20}

// Options override how the API client is built.
type Options struct {
	// BatchSize is the listing page size.
	BatchSize int

	// HTTPClient replaces the default transport.
	HTTPClient *http.Client

	// BaseURL replaces the API hosts, for tests.
	BaseURL string
}

// Connector lists and downloads Dropbox files.
type Connector struct {
	config  *Config
	client  files.Client
	limiter *throttle.Throttle

	mu     sync.Mutex
	closed bool
}

// New creates a Dropbox connector authenticated with the token param.
func New(cfg *domain.ConnectionConfig, opts Options) (*Connector, error) {
	token := cfg.Param(domain.ParamToken)
	if token == "" {
		return nil, fmt.Errorf("%w: dropbox requires %q", domain.ErrAuthRequired, domain.ParamToken)
	}

	sdkConfig := sdk.Config{
		Token:    token,
		LogLevel: sdk.LogOff,
	}
	if opts.HTTPClient != nil {
		// The SDK only attaches the token to clients it builds itself.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
		sdkConfig.Client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	if opts.BaseURL != "" {
		base := strings.TrimSuffix(opts.BaseURL, "/")
		sdkConfig.URLGenerator = func(_ string, namespace string, route string) string {
			return fmt.Sprintf("%s/2/%s/%s", base, namespace, route)
		}
	}
	return NewWithClient(cfg, files.New(sdkConfig), opts.BatchSize), nil
}

// NewWithClient creates a connector over an existing client.
func NewWithClient(cfg *domain.ConnectionConfig, client files.Client, batchSize int) *Connector {
	return &Connector{
		config:  ParseConfig(cfg, batchSize),
		client:  client,
		limiter: throttle.New(Limits),
	}
}

// Kind returns the source kind.
func (c *Connector) Kind() domain.SourceKind {
	return domain.KindDropbox
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsUpdates:   true,
		SupportsBinary:    true,
		SupportsHierarchy: true,
		RequiresAuth:      true,
	}
}

// Validate lists one entry of the folder to check the token and path.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	arg := files.NewListFolderArg(c.config.FolderPath)
	arg.Limit = 1
	if _, err := c.client.ListFolder(arg); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, c.observe(err))
	}
	return nil
}

// FetchBatch lists the next page of entries. Pages holding only folders
// or deletions are skipped over until a file appears or the listing ends.
func (c *Connector) FetchBatch(ctx context.Context, cur string) (*domain.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	next := cur
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res, err := c.list(next)
		if err != nil {
			return nil, err
		}

		var records []domain.RawRecord
		for _, entry := range res.Entries {
			if file, ok := entry.(*files.FileMetadata); ok && ShouldSyncFile(file, c.config) {
				records = append(records, FileToRecord(file))
			}
		}
		next = res.Cursor

		if len(records) > 0 {
			return &domain.Batch{Records: records, NextCursor: next, HasMore: res.HasMore}, nil
		}
		if !res.HasMore {
			return &domain.Batch{NextCursor: cur}, nil
		}
	}
}

func (c *Connector) list(cur string) (*files.ListFolderResult, error) {
	if cur == "" {
		arg := files.NewListFolderArg(c.config.FolderPath)
		arg.Recursive = true
		arg.Limit = uint32(c.config.BatchSize)
		res, err := c.client.ListFolder(arg)
		if err != nil {
			return nil, fmt.Errorf("dropbox list %q: %w", c.config.FolderPath, c.observe(err))
		}
		return res, nil
	}

	res, err := c.client.ListFolderContinue(files.NewListFolderContinueArg(cur))
	if err != nil {
		return nil, fmt.Errorf("dropbox continue: %w", c.observe(err))
	}
	return res, nil
}

// RawBytes downloads a file by id.
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

	_, body, err := c.client.Download(files.NewDownloadArg(rec.ID))
	if err != nil {
		wrapped := c.observe(err)
		if errors.Is(wrapped, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: dropbox file %s: %w", domain.ErrRecordDecode, rec.ID, wrapped)
		}
		return nil, fmt.Errorf("dropbox download %s: %w", rec.ID, wrapped)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, int64(c.config.MaxFileSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: dropbox read %s: %w", domain.ErrTransient, rec.ID, err)
	}
	if uint64(len(data)) > c.config.MaxFileSize {
		return nil, fmt.Errorf("%w: dropbox file %s exceeds %d bytes", domain.ErrRecordDecode, rec.ID, c.config.MaxFileSize)
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

// observe pauses the throttle on a rate-limit response and maps err.
func (c *Connector) observe(err error) error {
	wrapped := wrapError(err)
	if errors.Is(wrapped, domain.ErrRateLimited) {
		var retry time.Duration
		var rateErr auth.RateLimitAPIError
		if errors.As(err, &rateErr) && rateErr.RateLimitError != nil {
			retry = time.Duration(rateErr.RateLimitError.RetryAfter) * time.Second
		}
		c.limiter.Pause(retry)
	}
	return wrapped
}

// wrapError maps SDK errors onto the domain errors. The SDK reports
// endpoint errors through their summary, which starts with the error tag.
func wrapError(err error) error {
	var rateErr auth.RateLimitAPIError
	var authErr auth.AuthAPIError
	switch {
	case errors.As(err, &rateErr):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case errors.As(err, &authErr):
		return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
	}

	summary := err.Error()
	switch {
	case strings.HasPrefix(summary, "reset"):
		return fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	case strings.Contains(summary, "not_found"):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case strings.HasPrefix(summary, "too_many"):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case strings.Contains(summary, "access_token"):
		return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
	case strings.Contains(summary, "internal_error"), strings.Contains(summary, "Server Error"):
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	default:
		return err
	}
}
