package mcp

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil search service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("search only creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search:     &mockSearchService{},
			Connection: &mockConnectionService{},
			Document:   &mockDocumentService{},
			Category:   &mockCategoryService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSearchService)
	assert.NoError(t, (&Ports{Search: &mockSearchService{}}).Validate())
}

func TestServer_WithVersion(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}}, WithVersion("1.2.3"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", s.version)

	s, err = NewServer(&Ports{Search: &mockSearchService{}}, WithVersion(""))
	require.NoError(t, err)
	assert.Equal(t, "dev", s.version)
}

func TestServer_HealthEndpoint(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + healthPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + healthPath)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("Serve did not return after cancel")
	}
}
