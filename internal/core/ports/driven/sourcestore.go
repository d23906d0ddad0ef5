package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ConnectionStore persists connection configs, one namespace per
// (kind, tenant) pair.
type ConnectionStore interface {
	// Save creates a connection config or updates the settings of an
	// existing one. An existing cursor, LastSync and CreatedAt are kept:
	// only SaveCursor moves a stored cursor.
	Save(ctx context.Context, cfg *domain.ConnectionConfig) error

	// SaveParams replaces the connector parameters of a stored config and
	// stamps UpdatedAt, leaving the cursor alone.
	// Returns domain.ErrNotFound if it does not exist.
	SaveParams(ctx context.Context, tenantID string, kind domain.SourceKind, id string, params map[string]string) error

	// Get retrieves a connection config.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.ConnectionConfig, error)

	// List returns every connection config, optionally restricted to a tenant.
	// An empty tenantID lists all tenants.
	List(ctx context.Context, tenantID string) ([]domain.ConnectionConfig, error)

	// SaveCursor advances the cursor of a connection config and stamps
	// LastSync.
	SaveCursor(ctx context.Context, tenantID string, kind domain.SourceKind, id, cursor string) error
}
