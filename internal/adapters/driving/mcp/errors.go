// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants run access-filtered searches and read synced
// documents and connection metadata.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
