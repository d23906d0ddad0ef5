// Package structured extracts text from data formats: JSON, CSV and XML.
package structured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure JSON implements the interface.
var _ driven.Extractor = (*JSON)(nil)

// JSON joins the string leaves of a JSON document, one per line.
// Object keys are visited in sorted order so output is deterministic.
type JSON struct{}

// NewJSON creates a new JSON extractor.
func NewJSON() *JSON {
	return &JSON{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (j *JSON) SupportedMIMETypes() []string {
	return []string{"application/json", "text/json", "application/ld+json", "application/x-ndjson"}
}

// Priority returns the selection priority.
func (j *JSON) Priority() int {
	return 50
}

// Extract returns the string values found in data. Newline-delimited JSON
// is accepted: every value in the stream is visited.
func (j *JSON) Extract(_ context.Context, data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var leaves []string
	for dec.More() {
		var v any
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("%w: json: %w", domain.ErrRecordDecode, err)
		}
		collectLeaves(v, &leaves)
	}
	return strings.Join(leaves, "\n"), nil
}

func collectLeaves(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			*out = append(*out, s)
		}
	case []any:
		for _, item := range t {
			collectLeaves(item, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectLeaves(t[k], out)
		}
	}
}
