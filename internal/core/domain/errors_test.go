package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrInvalidConfig,
		ErrUnsupportedType,
		ErrSyncInProgress,
		ErrEmbeddingUnavailable,
		ErrIndexUnavailable,
		ErrAuthRequired,
		ErrAuthInvalid,
		ErrConnectorValidation,
		ErrConnectorClosed,
		ErrInvalidCursor,
		ErrRateLimited,
		ErrEmptyContent,
		ErrRecordDecode,
		ErrTransient,
		ErrConflict,
		ErrPartialWrite,
	}

	for i, err1 := range allErrors {
		assert.NotEmpty(t, err1.Error())
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

func TestIsRecordError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unsupported type", fmt.Errorf("extract: %w", ErrUnsupportedType), true},
		{"empty content", ErrEmptyContent, true},
		{"decode", fmt.Errorf("row 7: %w", ErrRecordDecode), true},
		{"transient", ErrTransient, false},
		{"connector validation", ErrConnectorValidation, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecordError(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", fmt.Errorf("status 503: %w", ErrTransient), true},
		{"conflict", ErrConflict, true},
		{"rate limited", ErrRateLimited, true},
		{"invalid input", ErrInvalidInput, false},
		{"auth", ErrAuthInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

// TestErrors_WithWrapping tests error wrapping behavior
func TestErrors_WithWrapping(t *testing.T) {
	wrappedErr := fmt.Errorf("%w: %w", ErrConnectorValidation, errors.New("dial tcp: refused"))

	assert.True(t, errors.Is(wrappedErr, ErrConnectorValidation))
	assert.Contains(t, wrappedErr.Error(), "dial tcp")
}
