package drive

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	workspacePrefix      = "application/vnd.google-apps."
)

const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// Body size caps. Exports are rendered server side and kept smaller.
const (
	MaxExportSize   = 10 << 20
	MaxDownloadSize = 64 << 20
)

const fileFields = "id, name, mimeType, size, modifiedTime, webViewLink, parents, trashed"

const (
	metaFileID     = "file_id"
	metaSourceMIME = "source_mime_type"
)

// workspaceExport maps each exportable Workspace type to its export format
// and the content type that enables it. Workspace types missing here
// (forms, drawings, sites) have no text rendering and are never synced.
var workspaceExport = map[string]struct {
	format  string
	enabler ContentType
}{
	MimeTypeGoogleDoc:    {ExportMimeText, ContentDocs},
	MimeTypeGoogleSlides: {ExportMimeText, ContentDocs},
	MimeTypeGoogleSheet:  {ExportMimeCSV, ContentSheets},
}

// ExportMIME is the export format of a Workspace file, or "" when the file
// is downloaded as stored.
func ExportMIME(mimeType string) string {
	return workspaceExport[mimeType].format
}

// FileToRecord describes file without its body, which RawBytes fetches.
// Workspace files carry their export format as MIME type.
func FileToRecord(file *drive.File) domain.RawRecord {
	mimeType := file.MimeType
	if export := ExportMIME(mimeType); export != "" {
		mimeType = export
	}
	rec := domain.RawRecord{
		ID:       file.Id,
		Name:     file.Name,
		Title:    file.Name,
		MIMEType: mimeType,
		Size:     file.Size,
		URL:      WebURL(file),
		Metadata: map[string]any{
			metaFileID:     file.Id,
			metaSourceMIME: file.MimeType,
			"parents":      file.Parents,
		},
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		rec.ModifiedAt = t.UTC()
	}
	return rec
}

// ShouldSyncFile applies the trash, MIME filter and content type rules.
func ShouldSyncFile(file *drive.File, cfg *Config) bool {
	switch {
	case file.Trashed, file.MimeType == MimeTypeFolder:
		return false
	case len(cfg.MimeTypeFilter) > 0 && !slices.Contains(cfg.MimeTypeFilter, file.MimeType):
		return false
	}
	if w, ok := workspaceExport[file.MimeType]; ok {
		return cfg.HasContentType(w.enabler)
	}
	if strings.HasPrefix(file.MimeType, workspacePrefix) {
		return false
	}
	return cfg.HasContentType(ContentFiles)
}

func childrenQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))
}
