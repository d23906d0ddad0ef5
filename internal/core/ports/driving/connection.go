package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ConnectionService manages connection configurations.
type ConnectionService interface {
	// Add registers a new connection and its category.
	Add(ctx context.Context, cfg *domain.ConnectionConfig) error

	// Get retrieves a connection.
	Get(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.ConnectionConfig, error)

	// List returns connections, optionally restricted to a tenant.
	List(ctx context.Context, tenantID string) ([]domain.ConnectionConfig, error)

	// SetParams updates connector parameters such as credentials.
	// An empty value removes the parameter.
	SetParams(ctx context.Context, tenantID string, kind domain.SourceKind, id string, params map[string]string) error

	// ResetCursor clears the cursor so the next sync starts from the beginning.
	ResetCursor(ctx context.Context, tenantID string, kind domain.SourceKind, id string) error

	// Kinds describes every supported source kind.
	Kinds() []domain.KindDescriptor
}
