package drive

import (
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ContentType selects a family of Drive files to sync.
type ContentType string

const (
	ContentFiles  ContentType = "files"  // stored files, downloaded as is
	ContentDocs   ContentType = "docs"   // Docs and Slides, exported as text
	ContentSheets ContentType = "sheets" // Sheets, exported as CSV
)

// Connection params read by the Drive connector besides folder_id.
const (
	ParamContentTypes = "content_types"
	ParamMIMETypes    = "mime_types"
)

// DefaultContentTypes enables every family.
var DefaultContentTypes = []ContentType{ContentFiles, ContentDocs, ContentSheets}

const DefaultPageSize = 100

// Config is the parsed form of a gdrive ConnectionConfig.
type Config struct {
	ContentTypes []ContentType

	// MimeTypeFilter, when set, admits only files of these source types.
	MimeTypeFilter []string

	// FolderIDs are the roots of the first full walk.
	FolderIDs []string

	PageSize int64
}

// ParseConfig reads folder_id (required, comma separated), content_types
// and mime_types. A non-positive batchSize selects DefaultPageSize.
func ParseConfig(cfg *domain.ConnectionConfig, batchSize int) (*Config, error) {
	folders := splitList(cfg.Param(domain.ParamFolderID))
	if len(folders) == 0 {
		return nil, fmt.Errorf("%w: gdrive requires %q", domain.ErrInvalidConfig, domain.ParamFolderID)
	}
	c := &Config{
		ContentTypes:   DefaultContentTypes,
		MimeTypeFilter: splitList(cfg.Param(ParamMIMETypes)),
		FolderIDs:      folders,
		PageSize:       DefaultPageSize,
	}
	if batchSize > 0 {
		c.PageSize = int64(batchSize)
	}

	if raw := splitList(cfg.Param(ParamContentTypes)); len(raw) > 0 {
		c.ContentTypes = make([]ContentType, 0, len(raw))
		for _, name := range raw {
			ct := ContentType(name)
			if !slices.Contains(DefaultContentTypes, ct) {
				return nil, fmt.Errorf("%w: gdrive content type %q", domain.ErrInvalidConfig, name)
			}
			c.ContentTypes = append(c.ContentTypes, ct)
		}
	}
	return c, nil
}

// HasContentType reports whether ct is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	return slices.Contains(c.ContentTypes, ct)
}

// splitList splits a comma separated param, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
