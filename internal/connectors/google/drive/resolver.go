package drive

import (
	"google.golang.org/api/drive/v3"
)

// WebURL returns the browser link of a Drive file. The link reported by
// the API wins; otherwise the link is built from the file id.
func WebURL(file *drive.File) string {
	if file.WebViewLink != "" {
		return file.WebViewLink
	}
	if file.Id == "" {
		return ""
	}
	return "https://drive.google.com/file/d/" + file.Id + "/view"
}
