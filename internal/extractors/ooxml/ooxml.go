// Package ooxml extracts text from Office Open XML packages: DOCX, XLSX and
// PPTX.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// MIME types of the supported packages.
const (
	DOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	XLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// maxPartSize caps how much of a single package part is decompressed.
const maxPartSize = 64 << 20

var errMissingPart = errors.New("missing part")

// pkg is an opened OOXML package.
type pkg struct {
	files map[string]*zip.File
}

func openPackage(data []byte) (*pkg, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: ooxml: %w", domain.ErrRecordDecode, err)
	}
	p := &pkg{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}
	return p, nil
}

// read returns the decompressed content of a part.
func (p *pkg) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: ooxml: %w: %s", domain.ErrRecordDecode, errMissingPart, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: ooxml: %w", domain.ErrRecordDecode, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return nil, fmt.Errorf("%w: ooxml: %w", domain.ErrRecordDecode, err)
	}
	return content, nil
}

// numbered returns the parts matching re in ascending order of the number
// captured by its first group (slide2 before slide10).
func (p *pkg) numbered(re *regexp.Regexp) []string {
	type part struct {
		name string
		n    int
	}
	var parts []part
	for name := range p.files {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		parts = append(parts, part{name: name, n: n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	names := make([]string, len(parts))
	for i, pt := range parts {
		names[i] = pt.name
	}
	return names
}

// paragraphText returns the text runs of a WordprocessingML or DrawingML
// part. Runs are <t> elements; paragraphs (<p>) end with a newline and
// <tab>/<br> become whitespace.
func paragraphText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: ooxml: %w", domain.ErrRecordDecode, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return tidy(sb.String()), nil
}

// tidy trims trailing spaces from each line and drops blank lines.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimRight(line, " \t"); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
