package sqldb

import (
	"strconv"

	"github.com/custodia-labs/sercha-sync/internal/connectors/cursor"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// Cursor tracks the row and changelog watermarks.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`

	// LastID is the key of the last row read.
	LastID string `json:"last_id,omitempty"`

	// NumericID records whether LastID is an integer key.
	NumericID bool `json:"numeric_id,omitempty"`

	// LastChangeSeq is the changelog sequence of the last update read.
	LastChangeSeq int64 `json:"last_change_seq,omitempty"`
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
	return c, nil
}

// Encode serialises the cursor for storage.
func (c *Cursor) Encode() (string, error) {
	return cursor.Encode(c)
}

// lastIDArg returns the bind value for LastID.
func (c *Cursor) lastIDArg() any {
	if c.NumericID {
		if n, err := strconv.ParseInt(c.LastID, 10, 64); err == nil {
			return n
		}
	}
	return c.LastID
}
