package gcs

import (
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/connectors/cursor"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// Cursor is the (updated, name) of the last object returned. Objects are
// delivered in that order so a rewritten object sorts after the cursor.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`

	// Updated is the last object's update time in RFC 3339 format.
	Updated string `json:"updated,omitempty"`

	// Name is the last object's name.
	Name string `json:"name,omitempty"`

	updated time.Time
}

// CursorVersion implements cursor.Versioned.
func (c *Cursor) CursorVersion() int {
	return c.Version
}

// DecodeCursor deserialises a cursor. An empty string gives a new cursor.
func DecodeCursor(s string) (*Cursor, error) {
	c := &Cursor{Version: CursorVersion}
	if err := cursor.Decode(s, c, CursorVersion); err != nil {
		return nil, err
	}
	if c.Updated != "" {
		t, err := time.Parse(time.RFC3339Nano, c.Updated)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
		}
		c.updated = t
	}
	return c, nil
}

// Encode serialises the cursor for storage.
func (c *Cursor) Encode() (string, error) {
	return cursor.Encode(c)
}

// Advance moves the cursor to an object.
func (c *Cursor) Advance(updated time.Time, name string) {
	c.updated = updated
	c.Updated = updated.UTC().Format(time.RFC3339Nano)
	c.Name = name
}

// Before reports whether the cursor sorts before (updated, name).
func (c *Cursor) Before(updated time.Time, name string) bool {
	if c.Updated == "" {
		return true
	}
	if !updated.Equal(c.updated) {
		return updated.After(c.updated)
	}
	return name > c.Name
}
