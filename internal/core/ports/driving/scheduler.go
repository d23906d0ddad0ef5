package driving

import "context"

// Scheduler keeps the configured background tasks running: periodic
// SyncAll and search log pruning.
type Scheduler interface {
	// Start blocks until Stop is called, returning nil, or until ctx ends,
	// returning ctx.Err().
	Start(ctx context.Context) error

	// Stop ends Start and waits for in-flight tasks.
	Stop() error
}
