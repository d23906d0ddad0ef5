// Package ollama embeds chunk text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "nomic-embed-text"
	DefaultTimeout     = 30 * time.Second
	DefaultDimensions  = 768
	DefaultConcurrency = 4
)

// Config configures the service. The zero value talks to a local server.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int

	// Concurrency bounds parallel requests against servers that only
	// expose the single-prompt endpoint.
	Concurrency int
}

// EmbeddingService implements driven.EmbeddingService against Ollama.
// Batches go to /api/embed; servers older than that endpoint are detected
// once and served one prompt at a time through /api/embeddings.
type EmbeddingService struct {
	http        *http.Client
	baseURL     string
	model       string
	dimensions  int
	concurrency int
	legacy      atomic.Bool
}

type batchRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate"`
}

type batchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type promptRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type promptResponse struct {
	Embedding []float32 `json:"embedding"`
}

// errNoBatchEndpoint signals a server without /api/embed.
var errNoBatchEndpoint = fmt.Errorf("%w: ollama: endpoint not found", domain.ErrEmbeddingUnavailable)

// NewEmbeddingService fills in defaults for unset fields.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	s := &EmbeddingService{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		concurrency: cfg.Concurrency,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.dimensions <= 0 {
		s.dimensions = DefaultDimensions
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.http = &http.Client{Timeout: timeout}
	return s
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if !s.legacy.Load() {
		vecs, err := s.embedBatch(ctx, texts)
		if !errors.Is(err, errNoBatchEndpoint) {
			return vecs, err
		}
		s.legacy.Store(true)
	}
	return s.embedEach(ctx, texts)
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp batchResponse
	err := s.post(ctx, "/api/embed", batchRequest{Model: s.model, Input: texts, Truncate: true}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			domain.ErrEmbeddingUnavailable, len(resp.Embeddings), len(texts))
	}
	for _, v := range resp.Embeddings {
		if err := s.checkDimensions(v); err != nil {
			return nil, err
		}
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) embedEach(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			var resp promptResponse
			if err := s.post(gctx, "/api/embeddings", promptRequest{Model: s.model, Prompt: text}, &resp); err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			if err := s.checkDimensions(resp.Embedding); err != nil {
				return err
			}
			vecs[i] = resp.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (s *EmbeddingService) checkDimensions(v []float32) error {
	if len(v) != s.dimensions {
		return fmt.Errorf("%w: ollama returned %d dimensions, want %d",
			domain.ErrEmbeddingUnavailable, len(v), s.dimensions)
	}
	return nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the server answers /api/tags.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	resp, err := s.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Close drops idle connections.
func (s *EmbeddingService) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

func (s *EmbeddingService) post(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ollama: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: ollama: decode response: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

func (s *EmbeddingService) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w: ollama %s: %v",
			domain.ErrEmbeddingUnavailable, domain.ErrTransient, req.URL.Path, err)
	}
	return resp, nil
}

// statusError maps a non-200 response. A bare 404 from the router means the
// endpoint does not exist; a 404 naming the model is a configuration error.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	body := strings.TrimSpace(string(raw))
	switch {
	case resp.StatusCode == http.StatusNotFound && !strings.Contains(body, "model"):
		return errNoBatchEndpoint
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w: ollama status %d: %s",
			domain.ErrEmbeddingUnavailable, domain.ErrTransient, resp.StatusCode, body)
	default:
		return fmt.Errorf("%w: ollama status %d: %s", domain.ErrEmbeddingUnavailable, resp.StatusCode, body)
	}
}
