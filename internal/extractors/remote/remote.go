// Package remote provides an extractor backed by an HTTP text extraction
// service speaking the Apache Tika server protocol.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultPath     = "/tika"
	maxResponseSize = 32 << 20
)

// Config holds configuration for the remote extractor.
type Config struct {
	// BaseURL is the service base URL, e.g. http://localhost:9998.
	BaseURL string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// MIMETypes restricts the types sent to the service. Empty means any.
	MIMETypes []string
}

// Extractor sends documents to the service and returns the plain text it
// produces. It is registered with the lowest priority so local extractors
// win whenever they handle a type.
type Extractor struct {
	client   *http.Client
	endpoint string
	types    []string
}

// New creates a new remote extractor.
func New(cfg Config) *Extractor {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	types := cfg.MIMETypes
	if len(types) == 0 {
		types = []string{"*/*"}
	}
	return &Extractor{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + DefaultPath,
		types:    types,
	}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return e.types
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 1
}

// Extract uploads data and returns the extracted text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: remote extractor: %w", domain.ErrRecordDecode, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: remote extractor: %w", domain.ErrRecordDecode, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType, resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fmt.Errorf("%w: remote extractor: status %d", domain.ErrUnsupportedType, resp.StatusCode)
	case resp.StatusCode == http.StatusNoContent:
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: remote extractor: status %d: %s",
			domain.ErrRecordDecode, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

// Ping checks the service is reachable.
func (e *Extractor) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote extractor unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote extractor returned status %d", resp.StatusCode)
	}
	return nil
}
