package drive

import (
	"github.com/custodia-labs/sercha-sync/internal/connectors/cursor"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// Cursor tracks Google Drive sync state.
//
// The first run walks the folder tree breadth first: Pending holds the
// folders still to list and PageToken the position within Pending[0].
// Once Pending is empty the connector reads the Changes API from
// StartPageToken, which was captured before the walk began so nothing
// changed during the walk is missed.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`

	// StartPageToken is the Changes API position.
	StartPageToken string `json:"start_page_token,omitempty"`

	// PageToken is the Files.List position within the head folder.
	PageToken string `json:"page_token,omitempty"`

	// Pending lists folders still to walk.
	Pending []string `json:"pending,omitempty"`

	// FolderIDs lists every folder seen below the configured roots. Changes
	// to files outside them are ignored.
	FolderIDs []string `json:"folder_ids,omitempty"`

	// Walked is true once the initial walk has finished.
	Walked bool `json:"walked,omitempty"`
}

// NewCursor creates a cursor that will walk roots.
func NewCursor(roots []string) *Cursor {
	return &Cursor{
		Version:   CursorVersion,
		Pending:   append([]string(nil), roots...),
		FolderIDs: append([]string(nil), roots...),
	}
}

// CursorVersion implements cursor.Versioned.
func (c *Cursor) CursorVersion() int {
	return c.Version
}

// DecodeCursor deserialises a cursor. An empty string gives a cursor that
// walks roots.
func DecodeCursor(s string, roots []string) (*Cursor, error) {
	c := NewCursor(roots)
	if s == "" {
		return c, nil
	}
	*c = Cursor{}
	if err := cursor.Decode(s, c, CursorVersion); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode serialises the cursor for storage.
func (c *Cursor) Encode() (string, error) {
	return cursor.Encode(c)
}

// IsEmpty returns true if the cursor has no sync state.
func (c *Cursor) IsEmpty() bool {
	return c.StartPageToken == "" && !c.Walked
}

// knows reports whether id is a tracked folder.
func (c *Cursor) knows(id string) bool {
	for _, f := range c.FolderIDs {
		if f == id {
			return true
		}
	}
	return false
}

// track adds a folder to the tracked set.
func (c *Cursor) track(id string) {
	if !c.knows(id) {
		c.FolderIDs = append(c.FolderIDs, id)
	}
}
