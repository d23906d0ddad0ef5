// Package cursor encodes connector cursors as versioned base64 JSON.
//
// Every connector keeps its own cursor struct; this package only handles
// the envelope so stored cursors stay opaque and forward-checked.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Versioned is implemented by cursor structs.
type Versioned interface {
	// CursorVersion returns the version stored in the cursor.
	CursorVersion() int
}

// Encode serialises a cursor to a base64 string for storage.
func Encode(c any) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode deserialises s into c. An empty string leaves c untouched.
// A cursor written by a newer version is rejected.
func Decode(s string, c Versioned, maxVersion int) error {
	if s == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	if c.CursorVersion() > maxVersion {
		return fmt.Errorf("%w: version %d is newer than %d", domain.ErrInvalidCursor, c.CursorVersion(), maxVersion)
	}
	return nil
}
