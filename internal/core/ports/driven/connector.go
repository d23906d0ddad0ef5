package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Connector reads records from one external source.
// Each source kind (sql, mongodb, gdrive, dropbox, gcs) implements this interface.
// A Connector is bound to a single ConnectionConfig and owns its clients.
type Connector interface {
	// Kind returns the source kind this connector reads.
	Kind() domain.SourceKind

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks the source is reachable and the credentials work.
	// Errors wrap domain.ErrConnectorValidation or domain.ErrAuthInvalid and
	// are fatal for a sync run.
	Validate(ctx context.Context) error

	// FetchBatch returns the records after cursor. An empty cursor starts
	// from the beginning. Calling it twice with the same cursor returns the
	// same records or a superset. NextCursor is strictly further than cursor
	// when records are returned and equal to it when none are.
	FetchBatch(ctx context.Context, cursor string) (*domain.Batch, error)

	// RawBytes returns the payload of a record. Records that carry inline
	// content return it without a remote call.
	RawBytes(ctx context.Context, rec *domain.RawRecord) ([]byte, error)

	// Close releases the connector's clients.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsUpdates indicates modified records are re-delivered after the
	// cursor, not only new ones.
	SupportsUpdates bool

	// SupportsBinary indicates records carry file payloads that need
	// sniffing and extraction rather than inline text.
	SupportsBinary bool

	// SupportsHierarchy indicates the source has nested folders.
	SupportsHierarchy bool

	// RequiresAuth indicates the connector needs credentials in its params.
	RequiresAuth bool

	// SupportsRateLimiting indicates the connector throttles its own API calls.
	SupportsRateLimiting bool

	// NeedsBootstrap indicates the connector prepares the source once
	// (for example change tracking) and records that in the config.
	NeedsBootstrap bool
}

// Bootstrapper is implemented by connectors that prepare their source once
// per connection. The orchestrator calls Bootstrap before the first fetch
// and persists the param the connector sets.
type Bootstrapper interface {
	// Bootstrap prepares the source. It is idempotent.
	Bootstrap(ctx context.Context, cfg *domain.ConnectionConfig) error
}
