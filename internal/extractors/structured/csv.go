package structured

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure CSV implements the interface.
var _ driven.Extractor = (*CSV)(nil)

// CSV joins cells with spaces and rows with newlines.
type CSV struct {
	comma rune
	types []string
}

// NewCSV creates a comma-separated values extractor.
func NewCSV() *CSV {
	return &CSV{comma: ',', types: []string{"text/csv", "application/csv"}}
}

// NewTSV creates a tab-separated values extractor.
func NewTSV() *CSV {
	return &CSV{comma: '\t', types: []string{"text/tab-separated-values"}}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (c *CSV) SupportedMIMETypes() []string {
	return c.types
}

// Priority returns the selection priority.
func (c *CSV) Priority() int {
	return 50
}

// Extract flattens the table in data. Rows may have differing field counts.
func (c *CSV) Extract(_ context.Context, data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: csv: %w", domain.ErrRecordDecode, err)
		}
		cells := make([]string, 0, len(record))
		for _, cell := range record {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " "))
		}
	}
	return strings.Join(rows, "\n"), nil
}
