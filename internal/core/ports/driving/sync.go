package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SyncOrchestrator coordinates incremental synchronisation from connections
// into both indices.
type SyncOrchestrator interface {
	// Sync runs one connection until its source has no more records.
	// Returns domain.ErrSyncInProgress if a run for the connection is active.
	Sync(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.RunReport, error)

	// SyncAll runs every configured connection. Connections run in parallel;
	// failures are joined into the returned error.
	SyncAll(ctx context.Context) ([]domain.RunReport, error)

	// Status returns the state of a connection's current or last run.
	Status(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// ConnectionKey identifies the connection.
	ConnectionKey string

	// Running indicates if sync is currently in progress.
	Running bool

	// State is the run phase.
	State domain.RunState

	// RecordsProcessed is the count of records fetched so far.
	RecordsProcessed int

	// DocumentsWritten is the count of documents written to both indices.
	DocumentsWritten int

	// Skipped is the count of records that produced no documents.
	Skipped int

	// Cursor is the last committed cursor.
	Cursor string

	// LastSync is when the cursor last advanced.
	LastSync time.Time

	// LastError is the error of the last failed run.
	LastError string
}
