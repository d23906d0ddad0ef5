// Package html extracts visible text from HTML documents.
package html

import (
	"bytes"
	"context"
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct {
	policy *bluemonday.Policy
}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{policy: bluemonday.StrictPolicy()}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

var hiddenStyle = regexp.MustCompile(`(?i)display\s*:\s*none|visibility\s*:\s*hidden`)

var multiBlank = regexp.MustCompile(`\n{3,}`)

// Extract returns the visible text of an HTML document. Script, style and
// hidden elements are dropped; block elements end a line.
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: html: %w", domain.ErrRecordDecode, err)
	}

	var sb strings.Builder
	walk(doc, &sb)

	text := sb.String()
	if strings.ContainsRune(text, '<') {
		// Text nodes can still carry markup, e.g. escaped tags in <textarea>.
		text = stdhtml.UnescapeString(e.policy.Sanitize(text))
	}
	return tidy(text), nil
}

// Title returns the document's <title>, or "".
func Title(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func walk(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
			if sb.Len() > 0 && !endsWithSpace(sb) {
				sb.WriteByte(' ')
			}
			sb.WriteString(s)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Head:
			return
		}
		if isHidden(n) {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, sb)
	}

	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		sb.WriteByte('\n')
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			if hiddenStyle.MatchString(a.Val) {
				return true
			}
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Hr, atom.Li, atom.Tr, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Ul, atom.Ol:
		return true
	default:
		return false
	}
}

func endsWithSpace(sb *strings.Builder) bool {
	s := sb.String()
	last := s[len(s)-1]
	return last == ' ' || last == '\n'
}

func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
