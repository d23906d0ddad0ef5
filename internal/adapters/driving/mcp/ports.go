package mcp

import (
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides access-filtered search.
	Search driving.SearchService

	// Connection lists configured connections.
	Connection driving.ConnectionService

	// Document reads documents from the primary index.
	Document driving.DocumentService

	// Category lists categories.
	Category driving.CategoryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
