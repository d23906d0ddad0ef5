package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/custodia-labs/sercha-sync/internal/connectors/cursor"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// Cursor tracks the last _id read. The id is stored as canonical extended
// JSON so ObjectIDs, strings and numbers keep their BSON type.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`

	// LastID is the extended JSON of {"_id": <last id>}.
	LastID string `json:"last_id,omitempty"`
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

type idHolder struct {
	ID any `bson:"_id"`
}

// SetLastID records id as the watermark.
func (c *Cursor) SetLastID(id any) error {
	data, err := bson.MarshalExtJSON(idHolder{ID: id}, true, false)
	if err != nil {
		return fmt.Errorf("encode cursor id: %w", err)
	}
	c.LastID = string(data)
	return nil
}

// Filter returns the query selecting documents after the watermark.
func (c *Cursor) Filter() (bson.D, error) {
	if c.LastID == "" {
		return bson.D{}, nil
	}
	var h idHolder
	if err := bson.UnmarshalExtJSON([]byte(c.LastID), true, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	return bson.D{{Key: "_id", Value: bson.D{{Key: "$gt", Value: h.ID}}}}, nil
}
