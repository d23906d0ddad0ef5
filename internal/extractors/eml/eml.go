// Package eml extracts text from RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxDepth bounds multipart nesting.
const maxDepth = 8

// HTMLToText converts an HTML body to text.
type HTMLToText func(ctx context.Context, data []byte) (string, error)

// Extractor handles email messages. The headers From, To, Date and Subject
// precede the body. Plain text parts are preferred over HTML ones.
type Extractor struct {
	html HTMLToText
}

// New creates a new email extractor. html converts HTML-only bodies; nil
// drops markup with a simple tag stripper.
func New(html HTMLToText) *Extractor {
	return &Extractor{html: html}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the message headers and body as text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: eml: %w", domain.ErrRecordDecode, err)
	}

	b := &bodies{}
	if err := b.collect(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0); err != nil {
		return "", fmt.Errorf("%w: eml: %w", domain.ErrRecordDecode, err)
	}

	body, err := e.body(ctx, b)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			fmt.Fprintf(&content, "%s: %s\n", key, v)
		}
	}
	content.WriteString("\n")
	content.WriteString(body)

	return strings.TrimSpace(content.String()), nil
}

func (e *Extractor) body(ctx context.Context, b *bodies) (string, error) {
	if len(b.text) > 0 {
		return strings.Join(b.text, "\n"), nil
	}
	parts := make([]string, 0, len(b.html))
	for _, h := range b.html {
		if e.html == nil {
			parts = append(parts, stripTags(h))
			continue
		}
		text, err := e.html(ctx, []byte(h))
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// bodies accumulates the text and HTML parts of a message in order.
type bodies struct {
	text []string
	html []string
}

func (b *bodies) collect(contentType, encoding string, r io.Reader, depth int) error {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return nil
		}
		return b.multipart(r, params["boundary"], depth+1)
	}
	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}

	content, err := decodeBody(r, encoding, params["charset"])
	if err != nil {
		return err
	}
	if mediaType == "text/html" {
		b.html = append(b.html, content)
	} else {
		b.text = append(b.text, content)
	}
	return nil
}

func (b *bodies) multipart(r io.Reader, boundary string, depth int) error {
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A truncated trailing part keeps what was read so far.
			return nil //nolint:nilerr
		}
		// Attachments are not part of the message text.
		if disp, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disp == "attachment" {
			part.Close()
			continue
		}
		// NextPart already decodes quoted-printable and drops the header.
		err = b.collect(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part, depth)
		part.Close()
		if err != nil {
			return err
		}
	}
}

// decodeBody undoes the transfer encoding and converts to UTF-8.
func decodeBody(r io.Reader, encoding, cs string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: r})
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if cs != "" && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "us-ascii") {
		if cr, err := charset.NewReaderLabel(cs, r); err == nil {
			r = cr
		}
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// newlineStripper drops CR and LF so base64 bodies wrapped at 76 columns
// decode cleanly.
type newlineStripper struct {
	r io.Reader
}

func (n *newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		j := 0
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := &mime.WordDecoder{CharsetReader: charset.NewReaderLabel}
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// stripTags removes HTML tags for basic text extraction.
func stripTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	var cleaned []string
	for _, line := range strings.Split(result.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
