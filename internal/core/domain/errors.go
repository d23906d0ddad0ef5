package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a connection config is missing required
	// parameters or carries values the connector cannot use.
	ErrInvalidConfig = errors.New("invalid connection config")

	// ErrUnsupportedType indicates no extractor handles a MIME type, or an
	// unknown source kind was requested.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a sync is already running for a connection.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates a search index back-end is not configured.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// Authentication Errors.

	// ErrAuthRequired indicates the connection needs credentials but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials were rejected by the source.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Connector Errors.

	// ErrConnectorValidation indicates connector validation failed.
	// The source is misconfigured, unreachable, or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrInvalidCursor indicates a stored cursor could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Record Errors. A record failing with one of these is skipped, the run continues.

	// ErrEmptyContent indicates extraction produced no text.
	ErrEmptyContent = errors.New("empty content")

	// ErrRecordDecode indicates a record could not be read from the source.
	ErrRecordDecode = errors.New("record decode failed")

	// Write Errors.

	// ErrTransient indicates a back-end failure worth retrying.
	ErrTransient = errors.New("transient failure")

	// ErrConflict indicates the back-end rejected a write due to a concurrent
	// modification. Writes are idempotent so conflicts are retried.
	ErrConflict = errors.New("write conflict")

	// ErrPartialWrite indicates a document reached one index but not the other.
	ErrPartialWrite = errors.New("partial dual-index write")
)

// IsRecordError reports whether err only affects a single record.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrRecordDecode)
}

// IsRetryable reports whether a write error should be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRateLimited)
}
