package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 3})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultConcurrency, svc.concurrency)
}

func TestEmbed(t *testing.T) {
	svc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, []string{"hello"}, req.Input)
		assert.True(t, req.Truncate)
		_ = json.NewEncoder(w).Encode(batchResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, vec, 1e-6)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})
	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_LegacyFallback(t *testing.T) {
	var batchCalls atomic.Int32
	svc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/embed" {
			batchCalls.Add(1)
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req promptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n := float32(len(req.Prompt))
		_ = json.NewEncoder(w).Encode(promptResponse{Embedding: []float32{n, n, n}})
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bbb", "cc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	for i, want := range []float32{1, 3, 2, 4, 5} {
		assert.Equal(t, want, vecs[i][0])
	}

	_, err = svc.EmbedBatch(context.Background(), []string{"again"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), batchCalls.Load(), "batch endpoint tried once")
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "loading", transient: true},
		{name: "throttled", status: http.StatusTooManyRequests, body: "slow down", transient: true},
		{name: "model missing", status: http.StatusNotFound, body: "model not found"},
		{name: "wrong dimensions", status: http.StatusOK, body: `{"embeddings":[[1,2]]}`},
		{name: "wrong count", status: http.StatusOK, body: `{"embeddings":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := svc.Embed(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.Equal(t, tt.transient, domain.IsRetryable(err))
		})
	}
}

func TestEmbed_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := svc.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.True(t, domain.IsRetryable(err))
}

func TestPing(t *testing.T) {
	svc := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	})
	require.NoError(t, svc.Ping(context.Background()))

	failing := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	err := failing.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "boom"))
	assert.NoError(t, failing.Close())
}
