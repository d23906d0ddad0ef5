package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from connection configs.
type Factory struct {
	mu       sync.RWMutex
	builders map[domain.SourceKind]driven.ConnectorBuilder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[domain.SourceKind]driven.ConnectorBuilder),
	}
}

// Create builds the connector for cfg's kind.
func (f *Factory) Create(ctx context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil connection config", domain.ErrInvalidInput)
	}

	f.mu.RLock()
	builder, ok := f.builders[cfg.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: source kind %q", domain.ErrUnsupportedType, cfg.Kind)
	}
	return builder(ctx, cfg)
}

// Register adds or replaces the builder for kind.
func (f *Factory) Register(kind domain.SourceKind, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = builder
}

// SupportedKinds returns the registered kinds, sorted.
func (f *Factory) SupportedKinds() []domain.SourceKind {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]domain.SourceKind, 0, len(f.builders))
	for k := range f.builders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
