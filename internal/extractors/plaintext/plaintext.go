// Package plaintext extracts text from plain text and Markdown payloads.
package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text and other textual formats with no markup worth removing.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-log",
		"text/yaml",
		"application/x-yaml",
		"application/yaml",
		"text/toml",
		"application/toml",
		"text/javascript",
		"application/javascript",
		"text/x-go",
		"text/x-python",
		"text/x-shellscript",
		"text/css",
		"text/*",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback for any text/* type
}

// Extract decodes data as text.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	return Decode(data), nil
}

// Decode converts data to a valid UTF-8 string. UTF-16 payloads with a byte
// order mark are transcoded; a UTF-8 BOM is dropped; invalid sequences are
// replaced with U+FFFD.
func Decode(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xef, 0xbb, 0xbf}):
		data = data[3:]
	case bytes.HasPrefix(data, []byte{0xff, 0xfe}):
		return decodeUTF16(data[2:], false)
	case bytes.HasPrefix(data, []byte{0xfe, 0xff}):
		return decodeUTF16(data[2:], true)
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func decodeUTF16(data []byte, bigEndian bool) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if bigEndian {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			units = append(units, uint16(data[i+1])<<8|uint16(data[i]))
		}
	}
	return string(utf16.Decode(units))
}
