package structured

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure XML implements the interface.
var _ driven.Extractor = (*XML)(nil)

// XML returns the character data of an XML document, one text node per line.
type XML struct{}

// NewXML creates a new XML extractor.
func NewXML() *XML {
	return &XML{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (x *XML) SupportedMIMETypes() []string {
	return []string{"application/xml", "text/xml", "application/rss+xml", "application/atom+xml"}
}

// Priority returns the selection priority.
func (x *XML) Priority() int {
	return 50
}

// Extract returns the text nodes of data.
func (x *XML) Extract(_ context.Context, data []byte) (string, error) {
	text, err := CharData(data)
	if err != nil {
		return "", fmt.Errorf("%w: xml: %w", domain.ErrRecordDecode, err)
	}
	return text, nil
}

// CharData walks an XML token stream and joins its non-blank text nodes
// with newlines. It is shared with the office format extractors.
func CharData(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity

	var parts []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
