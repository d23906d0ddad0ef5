package ooxml

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Docx implements the interface.
var _ driven.Extractor = (*Docx)(nil)

// Docx handles Word documents. The main body is extracted, followed by
// footnotes and endnotes when present.
type Docx struct{}

// NewDocx creates a new DOCX extractor.
func NewDocx() *Docx {
	return &Docx{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Docx) SupportedMIMETypes() []string {
	return []string{DOCX}
}

// Priority returns the selection priority.
func (e *Docx) Priority() int {
	return 50
}

// Extract returns the document text, one paragraph per line.
func (e *Docx) Extract(_ context.Context, data []byte) (string, error) {
	p, err := openPackage(data)
	if err != nil {
		return "", err
	}

	body, err := p.read("word/document.xml")
	if err != nil {
		return "", err
	}
	text, err := paragraphText(body)
	if err != nil {
		return "", err
	}

	sections := []string{text}
	for _, name := range []string{"word/footnotes.xml", "word/endnotes.xml"} {
		if _, ok := p.files[name]; !ok {
			continue
		}
		part, err := p.read(name)
		if err != nil {
			return "", err
		}
		notes, err := paragraphText(part)
		if err != nil {
			return "", err
		}
		if notes != "" {
			sections = append(sections, notes)
		}
	}
	return strings.Join(sections, "\n"), nil
}
