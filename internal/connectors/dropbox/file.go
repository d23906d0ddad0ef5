package dropbox

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// extensionTypes covers document formats the system MIME table may lack.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".json": "application/json",
	".xml":  "application/xml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".rtf":  "application/rtf",
	".eml":  "message/rfc822",
	".doc":  "application/msword",
	".xls":  "application/vnd.ms-excel",
	".ppt":  "application/vnd.ms-powerpoint",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MIMETypeFor guesses a MIME type from a file name. The sniffer has the
// final say; this only seeds it.
func MIMETypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
	}
	return "application/octet-stream"
}

// FileToRecord converts Dropbox file metadata to a RawRecord. The bytes
// are fetched later by RawBytes.
func FileToRecord(file *files.FileMetadata) domain.RawRecord {
	return domain.RawRecord{
		ID:         file.Id,
		Name:       file.Name,
		Title:      file.Name,
		MIMEType:   MIMETypeFor(file.Name),
		Size:       int64(file.Size),
		ModifiedAt: file.ServerModified.UTC(),
		URL:        WebURL(file.PathDisplay, file.Id),
		Metadata: map[string]any{
			"path":         file.PathDisplay,
			"rev":          file.Rev,
			"content_hash": file.ContentHash,
		},
	}
}

// WebURL returns the browser link of a file. The path is preferred; the
// id only yields a preview link.
func WebURL(pathDisplay, fileID string) string {
	if pathDisplay != "" {
		return "https://www.dropbox.com/home/" + url.PathEscape(strings.TrimPrefix(pathDisplay, "/"))
	}
	if fileID != "" {
		return fmt.Sprintf("https://www.dropbox.com/preview/%s", strings.TrimPrefix(fileID, "id:"))
	}
	return "https://www.dropbox.com/home"
}

// ShouldSyncFile checks if a file should be synced based on config.
func ShouldSyncFile(file *files.FileMetadata, cfg *Config) bool {
	if file == nil || !file.IsDownloadable {
		return false
	}
	if cfg.MaxFileSize > 0 && file.Size > cfg.MaxFileSize {
		return false
	}
	return cfg.allowsMIME(MIMETypeFor(file.Name))
}
