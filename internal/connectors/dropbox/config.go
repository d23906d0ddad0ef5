package dropbox

import (
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ParamMIMETypes limits syncing to files whose type matches one of the
// comma-separated entries. An entry ending in "/" matches a whole family.
const ParamMIMETypes = "mime_types"

// DefaultMaxFileSize skips files larger than this without downloading them.
const DefaultMaxFileSize = 64 * 1024 * 1024

// Config holds Dropbox connector configuration.
type Config struct {
	// FolderPath is the root to list; empty lists the whole account.
	FolderPath string
	// MimeTypeFilter limits syncing to specific MIME types (optional).
	MimeTypeFilter []string
	// MaxFileSize skips larger files.
	MaxFileSize uint64
	// BatchSize is the listing page size.
	BatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
		BatchSize:   100,
	}
}

// ParseConfig extracts configuration from a connection.
func ParseConfig(cfg *domain.ConnectionConfig, batchSize int) *Config {
	c := DefaultConfig()
	c.FolderPath = normalizePath(cfg.Param(domain.ParamFolderPath))
	if batchSize > 0 {
		c.BatchSize = batchSize
	}
	if val := cfg.Param(ParamMIMETypes); val != "" {
		for _, part := range strings.Split(val, ",") {
			if p := strings.TrimSpace(part); p != "" {
				c.MimeTypeFilter = append(c.MimeTypeFilter, p)
			}
		}
	}
	return c
}

// normalizePath returns the API form of a folder path: "" for the root,
// otherwise a path with a leading and no trailing slash.
func normalizePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// allowsMIME checks the filter. An empty filter allows everything.
func (c *Config) allowsMIME(mimeType string) bool {
	if len(c.MimeTypeFilter) == 0 {
		return true
	}
	for _, f := range c.MimeTypeFilter {
		if f == mimeType || (strings.HasSuffix(f, "/") && strings.HasPrefix(mimeType, f)) {
			return true
		}
	}
	return false
}
