package legacy

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure RTF implements the interface.
var _ driven.Extractor = (*RTF)(nil)

// skipDestinations are groups whose content is not document text.
var skipDestinations = map[string]bool{
	"fonttbl":            true,
	"colortbl":           true,
	"stylesheet":         true,
	"info":               true,
	"pict":               true,
	"object":             true,
	"fldinst":            true,
	"themedata":          true,
	"colorschememapping": true,
	"datastore":          true,
	"latentstyles":       true,
	"listtable":          true,
	"listoverridetable":  true,
	"rsidtbl":            true,
	"generator":          true,
	"xmlnstbl":           true,
	"filetbl":            true,
	"revtbl":             true,
	"header":             true,
	"footer":             true,
}

// RTF handles Rich Text Format documents.
type RTF struct{}

// NewRTF creates a new RTF extractor.
func NewRTF() *RTF {
	return &RTF{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *RTF) SupportedMIMETypes() []string {
	return []string{"application/rtf", "text/rtf"}
}

// Priority returns the selection priority.
func (e *RTF) Priority() int {
	return 50
}

// Extract strips control words and groups, keeping the document text.
func (e *RTF) Extract(_ context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(`{\rtf`)) {
		return "", fmt.Errorf("%w: rtf: missing header", domain.ErrRecordDecode)
	}
	return StripRTF(data), nil
}

type rtfGroup struct {
	skip bool
	uc   int
}

// StripRTF returns the plain text of an RTF document.
//
//nolint:gocyclo // Single pass RTF tokeniser
func StripRTF(data []byte) string {
	var out strings.Builder
	stack := []rtfGroup{{uc: 1}}
	pendingSkip := 0

	cur := func() *rtfGroup { return &stack[len(stack)-1] }
	write := func(r rune) {
		if pendingSkip > 0 {
			pendingSkip--
			return
		}
		if !cur().skip {
			out.WriteRune(r)
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch c {
		case '{':
			stack = append(stack, *cur())
			i++
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			i++
		case '\r', '\n':
			i++
		case '\\':
			i++
			if i >= len(data) {
				break
			}
			next := data[i]
			switch {
			case isLetter(next):
				start := i
				for i < len(data) && isLetter(data[i]) {
					i++
				}
				word := string(data[start:i])
				pstart := i
				if i < len(data) && data[i] == '-' {
					i++
				}
				for i < len(data) && data[i] >= '0' && data[i] <= '9' {
					i++
				}
				param, hasParam := 0, i > pstart
				if hasParam {
					param, _ = strconv.Atoi(string(data[pstart:i]))
				}
				if i < len(data) && data[i] == ' ' {
					i++
				}
				pendingSkip = controlWord(word, param, hasParam, cur(), &out, pendingSkip)
			case next == '\'':
				if i+2 < len(data) {
					if v, err := strconv.ParseUint(string(data[i+1:i+3]), 16, 8); err == nil {
						write(charmap.Windows1252.DecodeByte(byte(v)))
					}
				}
				i += 3
			case next == '*':
				cur().skip = true
				i++
			case next == '~':
				write(' ')
				i++
			case next == '_':
				write('-')
				i++
			case next == '-':
				i++
			case next == '\r' || next == '\n':
				if !cur().skip {
					out.WriteByte('\n')
				}
				i++
			default:
				write(rune(next))
				i++
			}
		default:
			write(rune(c))
			i++
		}
	}
	return tidyLines(out.String())
}

// controlWord applies a control word to the current group and returns the
// number of fallback characters still to skip.
func controlWord(word string, param int, hasParam bool, g *rtfGroup, out *strings.Builder, pendingSkip int) int {
	if skipDestinations[word] {
		g.skip = true
		return pendingSkip
	}
	if g.skip {
		return pendingSkip
	}
	switch word {
	case "par", "line", "sect", "page", "row":
		out.WriteByte('\n')
	case "tab", "cell":
		out.WriteByte('\t')
	case "emdash":
		out.WriteRune('—')
	case "endash":
		out.WriteRune('–')
	case "bullet":
		out.WriteRune('•')
	case "lquote":
		out.WriteRune('‘')
	case "rquote":
		out.WriteRune('’')
	case "ldblquote":
		out.WriteRune('“')
	case "rdblquote":
		out.WriteRune('”')
	case "uc":
		if hasParam && param >= 0 {
			g.uc = param
		}
	case "u":
		if hasParam {
			if param < 0 {
				param += 65536
			}
			out.WriteRune(rune(param))
			return g.uc
		}
	}
	return pendingSkip
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// tidyLines trims every line and drops blank ones.
func tidyLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
