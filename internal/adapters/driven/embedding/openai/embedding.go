// Package openai embeds chunk text through the OpenAI embeddings endpoint
// or any API compatible with it.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// DefaultMaxInputs bounds the inputs sent in one request.
	DefaultMaxInputs = 256

	fallbackDimensions = 1536
)

var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the service. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3 vectors. Zero keeps the model size.
	Dimensions int

	// MaxInputs splits larger batches into several requests.
	MaxInputs int

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// EmbeddingService implements driven.EmbeddingService over HTTP.
type EmbeddingService struct {
	http       *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxInputs  int
}

type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewEmbeddingService validates cfg and fills in defaults.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrInvalidConfig)
	}
	s := &EmbeddingService{
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		apiKey:     cfg.APIKey,
		model:      orDefault(cfg.Model, DefaultModel),
		dimensions: cfg.Dimensions,
		maxInputs:  cfg.MaxInputs,
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.http = &http.Client{Timeout: timeout}
	if s.dimensions <= 0 {
		s.dimensions = fallbackDimensions
		if d, ok := knownDimensions[s.model]; ok {
			s.dimensions = d
		}
	}
	if s.maxInputs <= 0 {
		s.maxInputs = DefaultMaxInputs
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text in input order. Batches larger than
// MaxInputs are sent as consecutive requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.maxInputs {
		end := min(start+s.maxInputs, len(texts))
		vecs, err := s.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: texts, EncodingFormat: "float"}
	if strings.HasPrefix(s.model, "text-embedding-3") {
		req.Dimensions = s.dimensions
	}
	var resp embeddingResponse
	if err := s.do(ctx, http.MethodPost, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs",
			domain.ErrEmbeddingUnavailable, len(resp.Data), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("%w: openai returned unexpected index %d", domain.ErrEmbeddingUnavailable, d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/models", nil, nil)
}

// Close drops idle connections.
func (s *EmbeddingService) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// do sends one request and decodes a 200 response into out when out is set.
func (s *EmbeddingService) do(ctx context.Context, method, path string, in, out any) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	body := io.Reader(http.NoBody)
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w: openai %s %s: %v", domain.ErrEmbeddingUnavailable, domain.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: openai: decode response: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// statusError maps a non-200 response. Throttling and server faults are
// transient; rejected credentials are not.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	var ae apiError
	if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}
	base := fmt.Errorf("openai status %d: %s", resp.StatusCode, msg)

	var kind error
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		kind = domain.ErrTransient
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = domain.ErrAuthInvalid
	}
	if kind == nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, base)
	}
	return fmt.Errorf("%w: %w: %w", domain.ErrEmbeddingUnavailable, kind, base)
}
