package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ConnectorBuilder creates a Connector from a connection config.
// Builders construct their own clients from the config's params.
type ConnectorBuilder func(ctx context.Context, cfg *domain.ConnectionConfig) (Connector, error)

// ConnectorFactory creates connectors from connection configuration.
// It maintains a registry of source kinds and their builders.
type ConnectorFactory interface {
	// Create returns a Connector for the given connection.
	// Returns ErrUnsupportedType if the kind is unknown.
	Create(ctx context.Context, cfg *domain.ConnectionConfig) (Connector, error)

	// Register adds a connector builder for the given kind.
	Register(kind domain.SourceKind, builder ConnectorBuilder)

	// SupportedKinds returns all registered kinds.
	SupportedKinds() []domain.SourceKind
}
