package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-sync/internal/logger"
)

const (
	serverName      = "sercha-sync"
	endpointPath    = "/mcp"
	healthPath      = "/healthz"
	shutdownTimeout = 5 * time.Second
)

// Option customises a Server.
type Option func(*Server)

// WithVersion sets the version advertised to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// Server exposes search, documents, connections and categories to MCP
// clients over stdio or streamable HTTP.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
}

// NewServer validates ports and registers every tool and resource.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	s := &Server{ports: ports, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	s.server = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: s.version}, nil)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client on stdin and stdout until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler routes the MCP endpoint and a liveness check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpointPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// RunHTTP listens on addr and serves Handler until ctx ends, then drains
// open requests for up to shutdownTimeout.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is RunHTTP on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	logger.Info("mcp: listening on %s%s", ln.Addr(), endpointPath)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp: shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
