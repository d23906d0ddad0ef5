package pdf

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// tjSpaceThreshold is the TJ kerning adjustment, in thousandths of an em,
// beyond which a gap is treated as a word break.
const tjSpaceThreshold = -200

// ContentText returns the text shown by the text operators of a PDF page
// content stream (Tj, TJ, ' and "). Positioning operators insert spaces or
// line breaks; whitespace is normalised and non-printable runes dropped.
func ContentText(stream []byte) string {
	s := &scanner{data: stream}
	s.run()
	return clean(s.out.String())
}

type scanner struct {
	data    []byte
	pos     int
	out     strings.Builder
	pending []string
	inArray bool
}

//nolint:gocyclo // Tokeniser switch over PDF content stream syntax
func (s *scanner) run() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case c == '%':
			s.skipLine()
		case c == '(':
			s.pending = append(s.pending, decodeText(s.literal()))
		case c == '<' && s.peek(1) == '<':
			s.pos += 2
		case c == '>' && s.peek(1) == '>':
			s.pos += 2
		case c == '<':
			s.pending = append(s.pending, decodeText(s.hex()))
		case c == '[':
			s.inArray = true
			s.pos++
		case c == ']':
			s.inArray = false
			s.pos++
		case c == '/':
			s.pos++
			s.word()
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			num := s.word()
			if s.inArray {
				if v, err := strconv.ParseFloat(num, 64); err == nil && v <= tjSpaceThreshold {
					s.pending = append(s.pending, " ")
				}
			}
		case isSpace(c):
			s.pos++
		default:
			s.operator(s.word())
		}
	}
}

func (s *scanner) operator(op string) {
	switch op {
	case "Tj", "TJ":
		s.flush()
	case "'", "\"":
		s.newline()
		s.flush()
	case "Td", "TD", "Tm":
		s.space()
	case "T*", "ET":
		s.newline()
	}
	s.pending = s.pending[:0]
}

func (s *scanner) flush() {
	for _, p := range s.pending {
		s.out.WriteString(p)
	}
}

func (s *scanner) space() {
	if s.out.Len() > 0 {
		s.out.WriteByte(' ')
	}
}

func (s *scanner) newline() {
	if s.out.Len() > 0 {
		s.out.WriteByte('\n')
	}
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.data) {
		return s.data[s.pos+n]
	}
	return 0
}

func (s *scanner) skipLine() {
	for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
		s.pos++
	}
}

// word consumes a run of regular characters. A lone delimiter that cannot
// start a token is consumed on its own so the scan always advances.
func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literal consumes a (string) with nested parentheses and escapes.
func (s *scanner) literal() []byte {
	s.pos++ // opening paren
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			buf = s.escape(buf)
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return buf
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

func (s *scanner) escape(buf []byte) []byte {
	if s.pos >= len(s.data) {
		return buf
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case 'n':
		return append(buf, '\n')
	case 'r':
		return append(buf, '\r')
	case 't':
		return append(buf, '\t')
	case 'b':
		return append(buf, '\b')
	case 'f':
		return append(buf, '\f')
	case '\r':
		if s.pos < len(s.data) && s.data[s.pos] == '\n' {
			s.pos++
		}
		return buf
	case '\n':
		return buf
	}
	if c >= '0' && c <= '7' {
		val := int(c - '0')
		for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
			val = val*8 + int(s.data[s.pos]-'0')
			s.pos++
		}
		return append(buf, byte(val))
	}
	return append(buf, c)
}

// hex consumes a <hex string>.
func (s *scanner) hex() []byte {
	s.pos++ // opening angle
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; isHexDigit(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // closing angle
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		v, _ := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		out[i] = byte(v)
	}
	return out
}

// decodeText maps string bytes to runes: UTF-16BE when the string starts
// with a byte order mark, otherwise one rune per byte.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xfe && b[1] == 0xff {
		units := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// clean collapses whitespace runs within lines, drops blank lines and
// non-printable runes.
func clean(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		var sb strings.Builder
		prevSpace := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if l := strings.TrimSpace(sb.String()); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	default:
		return false
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return false
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
