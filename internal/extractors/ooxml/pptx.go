package ooxml

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Pptx implements the interface.
var _ driven.Extractor = (*Pptx)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Pptx handles PowerPoint presentations.
type Pptx struct{}

// NewPptx creates a new PPTX extractor.
func NewPptx() *Pptx {
	return &Pptx{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Pptx) SupportedMIMETypes() []string {
	return []string{PPTX}
}

// Priority returns the selection priority.
func (e *Pptx) Priority() int {
	return 50
}

// Extract returns the text of every slide in slide order.
func (e *Pptx) Extract(ctx context.Context, data []byte) (string, error) {
	p, err := openPackage(data)
	if err != nil {
		return "", err
	}

	slides := p.numbered(slidePart)
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: ooxml: %w: slides", domain.ErrRecordDecode, errMissingPart)
	}

	var out []string
	for _, name := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		part, err := p.read(name)
		if err != nil {
			return "", err
		}
		text, err := paragraphText(part)
		if err != nil {
			return "", err
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n"), nil
}
