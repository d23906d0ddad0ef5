package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies the kind of external system a connection reads from.
type SourceKind string

const (
	// KindSQL reads rows from a relational table.
	KindSQL SourceKind = "sql"
	// KindMongoDB reads a document-store collection or GridFS bucket.
	KindMongoDB SourceKind = "mongodb"
	// KindGoogleDrive walks a Google Drive folder tree.
	KindGoogleDrive SourceKind = "gdrive"
	// KindDropbox walks a Dropbox folder tree.
	KindDropbox SourceKind = "dropbox"
	// KindGCS lists a Google Cloud Storage bucket.
	KindGCS SourceKind = "gcs"
)

// SourceKinds returns every supported kind in a stable order.
func SourceKinds() []SourceKind {
	return []SourceKind{KindSQL, KindMongoDB, KindGoogleDrive, KindDropbox, KindGCS}
}

// Valid returns true if k is a supported kind.
func (k SourceKind) Valid() bool {
	for _, known := range SourceKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseSourceKind converts user input into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: source kind %q", ErrUnsupportedType, s)
	}
	return k, nil
}

// ConnectionConfig is a registered external source.
// The ID doubles as the category id every document from this source is tagged with.
// It is mutated only by the sync orchestrator advancing Cursor, or by explicit
// credential updates; it is never deleted automatically.
type ConnectionConfig struct {
	// ID is the category id this connection feeds.
	ID string

	// TenantID scopes the connection and every document it produces.
	TenantID string

	// Kind selects the connector.
	Kind SourceKind

	// Name is a human-readable label.
	Name string

	// Category overrides the category written on documents. Defaults to ID.
	Category string

	// ContentField names the column/field holding document content (sql, mongodb).
	ContentField string

	// TitleField names the column/field holding the title (sql, mongodb).
	TitleField string

	// Params holds connector-specific settings and credentials
	// (uri, dsn, database, table, collection, bucket, folder_id, token, ...).
	Params map[string]string

	// Cursor is the opaque watermark of the last committed batch.
	Cursor string

	// LastSync is when the cursor was last advanced.
	LastSync time.Time

	// CreatedAt is when the connection was registered.
	CreatedAt time.Time

	// UpdatedAt is when the connection was last modified.
	UpdatedAt time.Time
}

// Key identifies the connection across kinds and tenants.
// It is the run-lock key and part of every document id.
func (c *ConnectionConfig) Key() string {
	return ConnectionKey(c.Kind, c.TenantID, c.ID)
}

// ConnectionKey identifies a connection across kinds and tenants. It is
// the run lock key.
func ConnectionKey(kind SourceKind, tenantID, id string) string {
	return string(kind) + ":" + tenantID + ":" + id
}

// Param returns a trimmed connector parameter, or "" when unset.
func (c *ConnectionConfig) Param(key string) string {
	if c.Params == nil {
		return ""
	}
	return strings.TrimSpace(c.Params[key])
}

// SetParam stores a connector parameter.
func (c *ConnectionConfig) SetParam(key, value string) {
	if c.Params == nil {
		c.Params = make(map[string]string)
	}
	c.Params[key] = value
}

// DocumentCategory is the category written on every document from this connection.
func (c *ConnectionConfig) DocumentCategory() string {
	if c.Category != "" {
		return c.Category
	}
	return c.ID
}

// Namespace is the storage namespace the config lives in.
func (c *ConnectionConfig) Namespace() string {
	return ConnectionIndexName(c.Kind, c.TenantID)
}

// Validate checks the fields every connector needs.
func (c *ConnectionConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidConfig)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	if desc, ok := LookupKind(c.Kind); ok {
		for _, key := range desc.ConfigKeys {
			if key.Required && c.Param(key.Key) == "" {
				return fmt.Errorf("%w: %s requires %q", ErrInvalidConfig, c.Kind, key.Key)
			}
		}
	}
	return nil
}

// Redacted returns a copy with secret parameters masked, for display.
func (c *ConnectionConfig) Redacted() ConnectionConfig {
	out := *c
	out.Params = make(map[string]string, len(c.Params))
	for k, v := range c.Params {
		if IsSecretParam(c.Kind, k) && v != "" {
			v = "********"
		}
		out.Params[k] = v
	}
	return out
}
