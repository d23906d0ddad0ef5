package plaintext

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Markdown implements the interface.
var _ driven.Extractor = (*Markdown)(nil)

// Markdown handles Markdown documents, keeping the prose and dropping syntax.
type Markdown struct{}

// NewMarkdown creates a new Markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (m *Markdown) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (m *Markdown) Priority() int {
	return 50
}

// Extract strips Markdown formatting from data.
func (m *Markdown) Extract(_ context.Context, data []byte) (string, error) {
	return StripMarkdown(Decode(data)), nil
}

var (
	mdFence      = regexp.MustCompile("(?m)^```.*$")
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|~~)`)
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdBlockquote = regexp.MustCompile(`(?m)^>\s?`)
	mdRule       = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	mdList       = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	mdBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes common Markdown syntax. Code block contents and
// image alt text are kept because they are searchable.
func StripMarkdown(content string) string {
	content = mdFence.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdList.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdEmphasis.ReplaceAllString(content, "")
	content = mdBlankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
