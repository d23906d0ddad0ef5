// Package mimesniff infers the MIME type of a payload from its bytes.
// It is the single place MIME heuristics live; every connector and the
// sync orchestrator go through it.
package mimesniff

import (
	"archive/zip"
	"bytes"
	"mime"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Sniffer implements the interface.
var _ driven.MIMESniffer = (*Sniffer)(nil)

// Well-known types returned by Detect.
const (
	OctetStream = "application/octet-stream"
	PlainText   = "text/plain"
	HTML        = "text/html"
	DOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	XLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PPTX        = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// printableRatio is the share of printable runes text must reach.
const printableRatio = 0.95

// htmlSniffLen bounds how far into the payload the HTML prefix check looks.
const htmlSniffLen = 512

// Sniffer adapts Detect to the driven.MIMESniffer port.
type Sniffer struct{}

// New returns a Sniffer.
func New() *Sniffer {
	return &Sniffer{}
}

// Detect returns the MIME type of data.
func (*Sniffer) Detect(data []byte) string {
	return Detect(data)
}

// Detect returns the MIME type of data. Checks run in order and the first
// match wins: magic-byte signatures, an HTML prefix, a UTF-8 text heuristic,
// and finally application/octet-stream. Empty input is text/plain.
// Detect never panics and always returns the same type for the same bytes.
func Detect(data []byte) (detected string) {
	defer func() {
		if r := recover(); r != nil {
			detected = OctetStream
		}
	}()

	if len(data) == 0 {
		return PlainText
	}
	if m := magic(data); m != "" {
		return m
	}
	if looksLikeHTML(data) {
		return HTML
	}
	if looksLikeText(data) {
		return PlainText
	}
	return OctetStream
}

// Normalize lowercases a MIME type and strips its parameters.
// "Text/HTML; charset=UTF-8" becomes "text/html".
func Normalize(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsGeneric reports whether mimeType carries no format information.
func IsGeneric(mimeType string) bool {
	switch Normalize(mimeType) {
	case "", PlainText, OctetStream, "binary/octet-stream", "application/unknown":
		return true
	default:
		return false
	}
}

// magic returns the signature-based type, or "" when the library only
// recognises the payload as generic text or binary.
func magic(data []byte) string {
	m := Normalize(mimetype.Detect(data).String())
	if m == "application/zip" {
		if office := officeZipType(data); office != "" {
			return office
		}
	}
	if IsGeneric(m) {
		return ""
	}
	return m
}

// officeZipType identifies OOXML containers whose [Content_Types].xml is not
// the first zip entry, which signature matching alone misses.
func officeZipType(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX
		}
	}
	return ""
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > htmlSniffLen {
		head = head[:htmlSniffLen]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeftFunc(head, unicode.IsSpace)
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}

func looksLikeText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	var total, printable int
	for _, r := range string(data) {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' || r == '\f' {
			printable++
		}
	}
	return float64(printable) >= printableRatio*float64(total)
}
