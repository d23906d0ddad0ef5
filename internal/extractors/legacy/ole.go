package legacy

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Office implements the interface.
var _ driven.Extractor = (*Office)(nil)

// oleMagic opens every compound file.
var oleMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// Minimum run lengths, in characters, for text to be kept.
const (
	minWideRun  = 4
	minASCIIRun = 6
)

// oleNames are compound file stream names that surface as text runs.
var oleNames = map[string]bool{
	"Root Entry":                 true,
	"WordDocument":               true,
	"Workbook":                   true,
	"Book":                       true,
	"PowerPoint Document":        true,
	"Current User":               true,
	"SummaryInformation":         true,
	"DocumentSummaryInformation": true,
	"CompObj":                    true,
}

// Office handles DOC, XLS and PPT files.
type Office struct{}

// NewOffice creates a new legacy Office extractor.
func NewOffice() *Office {
	return &Office{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Office) SupportedMIMETypes() []string {
	return []string{
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint",
		"application/x-ole-storage",
	}
}

// Priority returns the selection priority.
func (e *Office) Priority() int {
	return 30
}

// Extract returns the printable text runs of a compound file, one per line.
func (e *Office) Extract(_ context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(data, oleMagic) {
		return "", fmt.Errorf("%w: ole: not a compound file", domain.ErrRecordDecode)
	}
	return strings.Join(TextRuns(data[len(oleMagic):]), "\n"), nil
}

// TextRuns scans data for printable UTF-16LE and ASCII runs. UTF-16 code
// units are only accepted from the Latin, Greek, Cyrillic and punctuation
// blocks, so pairs of ASCII bytes are not misread as wide characters.
func TextRuns(data []byte) []string {
	var runs []string
	emit := func(s string) {
		for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }) {
			line = strings.Join(strings.Fields(line), " ")
			if len([]rune(line)) >= minWideRun && !oleNames[line] {
				runs = append(runs, line)
			}
		}
	}

	for i := 0; i < len(data); {
		if s, n := wideRun(data[i:]); n >= minWideRun {
			emit(s)
			i += n * 2
			continue
		}
		if n := asciiRun(data[i:]); n >= minASCIIRun {
			emit(string(data[i : i+n]))
			i += n
			continue
		}
		i++
	}
	return runs
}

func wideRun(data []byte) (string, int) {
	var sb strings.Builder
	n := 0
	for j := 0; j+1 < len(data); j += 2 {
		r := rune(data[j]) | rune(data[j+1])<<8
		if !wideText(r) {
			break
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String(), n
}

func wideText(r rune) bool {
	switch {
	case r == '\t' || r == '\r' || r == '\n':
		return true
	case r < 0x20:
		return false
	case r <= 0x04ff, r >= 0x2000 && r <= 0x206f:
		return unicode.IsPrint(r)
	default:
		return false
	}
}

func asciiRun(data []byte) int {
	n := 0
	for n < len(data) {
		c := data[n]
		if (c < 0x20 || c > 0x7e) && c != '\t' && c != '\r' && c != '\n' {
			break
		}
		n++
	}
	return n
}
