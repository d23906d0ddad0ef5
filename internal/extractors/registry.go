package extractors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/mimesniff"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// AnyType is the MIME pattern a fallback extractor registers to handle
// payloads no other extractor claims.
const AnyType = "*/*"

// Registry selects extractors by MIME type.
// Lookup order is the exact type, then the "type/*" wildcard, then AnyType.
// Within each, higher priority extractors are tried first.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Extractor)}
}

// Register adds an extractor under each MIME type it supports.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range e.SupportedMIMETypes() {
		key := normalizePattern(m)
		list := append(r.byMIME[key], e)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[key] = list
	}
}

// Supports reports whether any extractor handles mimeType.
func (r *Registry) Supports(mimeType string) bool {
	return len(r.candidates(mimeType)) > 0
}

// SupportedMIMETypes returns every registered pattern, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		types = append(types, m)
	}
	sort.Strings(types)
	return types
}

// Extract returns the text of data using the best extractor for mimeType.
// An extractor that reports domain.ErrUnsupportedType passes the payload on
// to the next candidate. When every candidate fails the first real failure
// is returned; when none exist the error wraps domain.ErrUnsupportedType.
func (r *Registry) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	candidates := r.candidates(mimeType)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no extractor for %q", domain.ErrUnsupportedType, mimesniff.Normalize(mimeType))
	}

	var firstErr error
	for _, e := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := e.Extract(ctx, data)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, domain.ErrUnsupportedType) {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, mimesniff.Normalize(mimeType))
}

func (r *Registry) candidates(mimeType string) []driven.Extractor {
	m := mimesniff.Normalize(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []driven.Extractor
	seen := make(map[driven.Extractor]struct{})
	add := func(key string) {
		for _, e := range r.byMIME[key] {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}

	if m != "" {
		add(m)
		if i := strings.IndexByte(m, '/'); i > 0 {
			add(m[:i] + "/*")
		}
	}
	add(AnyType)
	return out
}

func normalizePattern(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if strings.HasSuffix(m, "/*") {
		return m
	}
	return mimesniff.Normalize(m)
}
