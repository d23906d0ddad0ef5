package domain

import "time"

// RunState is the phase a sync run is in.
type RunState string

const (
	StateIdle          RunState = "idle"
	StateFetching      RunState = "fetching"
	StateProcessing    RunState = "processing"
	StateWriting       RunState = "writing"
	StateCursorAdvance RunState = "cursor_advance"
	StateFailed        RunState = "failed"
)

// SkipReason explains why a record produced no documents.
type SkipReason string

const (
	// SkipUnsupported means no extractor handles the record's type.
	SkipUnsupported SkipReason = "unsupported"
	// SkipEmpty means extraction produced no text.
	SkipEmpty SkipReason = "empty"
	// SkipFetch means the record's bytes could not be read.
	SkipFetch SkipReason = "fetch"
	// SkipExtract means the extractor failed on the payload.
	SkipExtract SkipReason = "extract"
)

// RunReport summarises one sync run of a connection.
type RunReport struct {
	// ConnectionID is the connection that was synced.
	ConnectionID string

	// TenantID scopes the connection.
	TenantID string

	// Kind is the connection's source kind.
	Kind SourceKind

	// State is the final state: StateIdle on success, StateFailed otherwise.
	State RunState

	// Batches counts committed batches.
	Batches int

	// Records counts records fetched.
	Records int

	// Documents counts documents written to both indices.
	Documents int

	// Skipped counts records that produced no documents.
	Skipped int

	// SkipReasons breaks Skipped down by reason.
	SkipReasons map[SkipReason]int

	// StartCursor is the cursor the run began from.
	StartCursor string

	// EndCursor is the last committed cursor.
	EndCursor string

	// StartedAt is when the run began.
	StartedAt time.Time

	// EndedAt is when the run finished.
	EndedAt time.Time
}

// AddSkip records a skipped record.
func (r *RunReport) AddSkip(reason SkipReason) {
	if r.SkipReasons == nil {
		r.SkipReasons = make(map[SkipReason]int)
	}
	r.SkipReasons[reason]++
	r.Skipped++
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
