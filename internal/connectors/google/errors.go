package google

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// rateLimitReasons are 403 reasons Google uses for throttling.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return statusCode(err) == http.StatusUnauthorized
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
// Google reports throttling as 429 or as 403 with a rate limit reason.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if rateLimitReasons[item.Reason] {
				return true
			}
		}
	}
	return false
}

// IsSyncTokenExpired returns true if the error indicates an expired page
// token (410 GONE). The client should start over.
func IsSyncTokenExpired(err error) bool {
	return statusCode(err) == http.StatusGone
}

// RetryAfter returns the Retry-After header of a throttled response in
// seconds, or 0.
func RetryAfter(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	n, _ := strconv.Atoi(gerr.Header.Get("Retry-After"))
	return n
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// WrapError maps a Google API error onto the domain errors.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	code := statusCode(err)
	switch {
	case code == 0:
		return err
	case IsRateLimited(err):
		return fmt.Errorf("%w: google: %w", domain.ErrRateLimited, err)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: google: %w", domain.ErrAuthInvalid, err)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: google: %w", domain.ErrNotFound, err)
	case code == http.StatusGone:
		return fmt.Errorf("%w: google: %w", domain.ErrInvalidCursor, err)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: google: %w", domain.ErrTransient, err)
	default:
		return err
	}
}
