package domain

import (
	"fmt"
	"strings"
)

// WriteOutcome summarises which indices accepted a write.
type WriteOutcome int

const (
	// OutcomeNeither means both indices rejected the write.
	OutcomeNeither WriteOutcome = iota
	// OutcomePrimaryOnly means only the primary index accepted the write.
	OutcomePrimaryOnly
	// OutcomeSecondaryOnly means only the secondary index accepted the write.
	OutcomeSecondaryOnly
	// OutcomeBothSucceeded means the write reached both indices.
	OutcomeBothSucceeded
)

// NewWriteOutcome maps per-index success to an outcome.
func NewWriteOutcome(primaryOK, secondaryOK bool) WriteOutcome {
	switch {
	case primaryOK && secondaryOK:
		return OutcomeBothSucceeded
	case primaryOK:
		return OutcomePrimaryOnly
	case secondaryOK:
		return OutcomeSecondaryOnly
	default:
		return OutcomeNeither
	}
}

// String returns the outcome name.
func (o WriteOutcome) String() string {
	switch o {
	case OutcomeBothSucceeded:
		return "both"
	case OutcomePrimaryOnly:
		return "primary-only"
	case OutcomeSecondaryOnly:
		return "secondary-only"
	default:
		return "neither"
	}
}

// WriteResult is the outcome of a dual-index upsert or delete.
type WriteResult struct {
	// DocumentID is the document written.
	DocumentID string

	// Outcome says which indices accepted the write.
	Outcome WriteOutcome

	// PrimaryErr is the last primary index error, nil on success.
	PrimaryErr error

	// SecondaryErr is the last secondary index error, nil on success.
	SecondaryErr error

	// PrimaryAttempts is how many times the primary index was called.
	PrimaryAttempts int

	// SecondaryAttempts is how many times the secondary index was called.
	SecondaryAttempts int

	// SecondarySkipped is set when no secondary index is configured. The
	// outcome then reflects the primary alone.
	SecondarySkipped bool
}

// OK returns true when both indices accepted the write.
func (r WriteResult) OK() bool {
	return r.Outcome == OutcomeBothSucceeded
}

// Err returns nil for a complete write, otherwise a *WriteError.
func (r WriteResult) Err() error {
	if r.OK() {
		return nil
	}
	return &WriteError{Result: r}
}

// WriteError reports an incomplete dual-index write.
// It matches ErrPartialWrite and each underlying index error with errors.Is.
type WriteError struct {
	Result WriteResult
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	var parts []string
	if e.Result.PrimaryErr != nil {
		parts = append(parts, fmt.Sprintf("primary: %v", e.Result.PrimaryErr))
	}
	if e.Result.SecondaryErr != nil {
		parts = append(parts, fmt.Sprintf("secondary: %v", e.Result.SecondaryErr))
	}
	return fmt.Sprintf("%s: document %s (%s): %s",
		ErrPartialWrite, e.Result.DocumentID, e.Result.Outcome, strings.Join(parts, "; "))
}

// Unwrap exposes the sentinel and the index errors.
func (e *WriteError) Unwrap() []error {
	errs := []error{ErrPartialWrite}
	if e.Result.PrimaryErr != nil {
		errs = append(errs, e.Result.PrimaryErr)
	}
	if e.Result.SecondaryErr != nil {
		errs = append(errs, e.Result.SecondaryErr)
	}
	return errs
}
