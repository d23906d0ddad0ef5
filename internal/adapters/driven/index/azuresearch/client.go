// Package azuresearch is a secondary index backed by a hosted search
// service that speaks the Azure Cognitive Search REST protocol.
//
// Documents are written with the batch endpoint using @search.action
// mergeOrUpload and delete. Each tenant has its own index named after
// domain.TenantIndexName.
package azuresearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SecondaryIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = domain.DefaultAzureAPIVersion
	DefaultTimeout    = 30 * time.Second

	// DefaultRequestsPerSecond caps calls to the service.
	DefaultRequestsPerSecond = 20
)

// Config holds configuration for the search service client.
type Config struct {
	// Endpoint is the service base URL, e.g. https://acme.search.windows.net.
	Endpoint string

	// APIKey is sent in the api-key header.
	APIKey string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RequestsPerSecond caps the request rate. Zero uses the default.
	RequestsPerSecond float64

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Index writes to and searches a hosted search service.
type Index struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
	limiter    *rate.Limiter
}

// New creates a client. The endpoint is required.
func New(cfg Config) (*Index, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: search service endpoint is required", domain.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: search service endpoint: %v", domain.ErrInvalidConfig, err)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Index{
		client:     client,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
	}, nil
}

// Name identifies the backend.
func (x *Index) Name() string {
	return "azuresearch"
}

// Upsert merges or uploads a document.
func (x *Index) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	action := toAction(doc, actionMergeOrUpload)
	return x.index(ctx, doc.TenantID, doc.ID, action)
}

// Delete removes a document. Deleting a missing document is not an error.
func (x *Index) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" || id == "" {
		return fmt.Errorf("%w: tenant and document id are required", domain.ErrInvalidInput)
	}
	action := map[string]any{"@search.action": actionDelete, domain.FieldID: id}
	return x.index(ctx, tenantID, id, action)
}

func (x *Index) index(ctx context.Context, tenantID, id string, action map[string]any) error {
	body := indexBatch{Value: []map[string]any{action}}

	var res indexResponse
	if err := x.do(ctx, x.docsURL(tenantID, "index"), body, &res); err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	for _, r := range res.Value {
		if !r.Status {
			return fmt.Errorf("index document %s: %w", r.Key, statusError(r.StatusCode, r.ErrorMessage))
		}
	}
	return nil
}

// Search runs the query's text with its filter rendered as OData.
func (x *Index) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchResult, error) {
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	if q.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	if q.Filter.MatchesNothing() {
		return []domain.SearchResult{}, nil
	}

	filter, err := renderFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = q.Filter.MatchText()
	}
	if text == "" {
		text = "*"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	body := searchRequest{
		Search:       text,
		SearchFields: strings.Join([]string{domain.FieldTitle, domain.FieldDescription, domain.FieldContent}, ","),
		Filter:       filter,
		Top:          limit,
		Skip:         max(q.Offset, 0),
	}
	var res searchResponse
	if err := x.do(ctx, x.docsURL(q.TenantID, "search"), body, &res); err != nil {
		return nil, fmt.Errorf("search %s: %w", domain.TenantIndexName(q.TenantID), err)
	}

	results := make([]domain.SearchResult, 0, len(res.Value))
	for _, hit := range res.Value {
		results = append(results, domain.SearchResult{
			Document: hit.document(),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// Close releases idle connections.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

func (x *Index) docsURL(tenantID, op string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		x.endpoint,
		url.PathEscape(domain.TenantIndexName(tenantID)),
		op,
		url.QueryEscape(x.apiVersion),
	)
}

// do posts body as JSON and decodes the response into out.
func (x *Index) do(ctx context.Context, endpoint string, body, out any) error {
	if err := x.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return fmt.Errorf("%w: send request: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	// 207 carries per-document statuses in the body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return statusError(resp.StatusCode, readError(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps an HTTP status to a domain error the writer can classify.
func statusError(status int, msg string) error {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable || status >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransient, status, msg)
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return fmt.Errorf("%w: status %d: %s", domain.ErrConflict, status, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuthInvalid, status, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: status %d: %s", domain.ErrIndexUnavailable, status, msg)
	default:
		return fmt.Errorf("search service error (status %d): %s", status, msg)
	}
}

func readError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "failed to read response"
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(data))
}
