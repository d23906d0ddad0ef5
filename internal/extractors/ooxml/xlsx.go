package ooxml

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Xlsx implements the interface.
var _ driven.Extractor = (*Xlsx)(nil)

var sheetPart = regexp.MustCompile(`^xl/worksheets/sheet(\d+)\.xml$`)

// Xlsx handles Excel workbooks. Cells are space-separated and rows are
// newline-separated, sheet after sheet.
type Xlsx struct{}

// NewXlsx creates a new XLSX extractor.
func NewXlsx() *Xlsx {
	return &Xlsx{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Xlsx) SupportedMIMETypes() []string {
	return []string{XLSX}
}

// Priority returns the selection priority.
func (e *Xlsx) Priority() int {
	return 50
}

type sharedStringsXML struct {
	Items []stringItem `xml:"si"`
}

type stringItem struct {
	Text string    `xml:"t"`
	Runs []richRun `xml:"r"`
}

type richRun struct {
	Text string `xml:"t"`
}

func (si stringItem) String() string {
	if len(si.Runs) == 0 {
		return si.Text
	}
	var sb strings.Builder
	for _, r := range si.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

type worksheetXML struct {
	Rows []rowXML `xml:"sheetData>row"`
}

type rowXML struct {
	Cells []cellXML `xml:"c"`
}

type cellXML struct {
	Type   string     `xml:"t,attr"`
	Value  string     `xml:"v"`
	Inline stringItem `xml:"is"`
}

// Extract returns the cell values of every worksheet.
func (e *Xlsx) Extract(ctx context.Context, data []byte) (string, error) {
	p, err := openPackage(data)
	if err != nil {
		return "", err
	}

	shared, err := sharedStrings(p)
	if err != nil {
		return "", err
	}

	sheets := p.numbered(sheetPart)
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: ooxml: %w: worksheets", domain.ErrRecordDecode, errMissingPart)
	}

	var lines []string
	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		part, err := p.read(name)
		if err != nil {
			return "", err
		}
		var ws worksheetXML
		if err := xml.Unmarshal(part, &ws); err != nil {
			return "", fmt.Errorf("%w: ooxml: %s: %w", domain.ErrRecordDecode, name, err)
		}
		for _, row := range ws.Rows {
			if line := rowText(row, shared); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func sharedStrings(p *pkg) ([]string, error) {
	const name = "xl/sharedStrings.xml"
	if _, ok := p.files[name]; !ok {
		return nil, nil
	}
	part, err := p.read(name)
	if err != nil {
		return nil, err
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(part, &sst); err != nil {
		return nil, fmt.Errorf("%w: ooxml: %s: %w", domain.ErrRecordDecode, name, err)
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

func rowText(row rowXML, shared []string) string {
	var cells []string
	for _, c := range row.Cells {
		var v string
		switch c.Type {
		case "s":
			if idx, err := strconv.Atoi(strings.TrimSpace(c.Value)); err == nil && idx >= 0 && idx < len(shared) {
				v = shared[idx]
			}
		case "inlineStr":
			v = c.Inline.String()
		default:
			v = c.Value
		}
		if v = strings.TrimSpace(v); v != "" {
			cells = append(cells, v)
		}
	}
	return strings.Join(cells, " ")
}
