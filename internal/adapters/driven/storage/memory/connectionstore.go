package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore is an in-memory implementation of driven.ConnectionStore.
// Configs are kept per namespace, keyed by id.
type ConnectionStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.ConnectionConfig
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		namespaces: make(map[string]map[string]domain.ConnectionConfig),
	}
}

// Save stores a connection config. Updating an existing one keeps its
// cursor, LastSync and CreatedAt.
func (s *ConnectionStore) Save(_ context.Context, cfg *domain.ConnectionConfig) error {
	if cfg == nil || cfg.ID == "" {
		return fmt.Errorf("%w: connection id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := cfg.Namespace()
	if s.namespaces[ns] == nil {
		s.namespaces[ns] = make(map[string]domain.ConnectionConfig)
	}
	next := copyConfig(cfg)
	if prev, ok := s.namespaces[ns][cfg.ID]; ok {
		next.Cursor = prev.Cursor
		next.LastSync = prev.LastSync
		next.CreatedAt = prev.CreatedAt
	}
	s.namespaces[ns][cfg.ID] = next
	return nil
}

// SaveParams replaces the params of a stored config.
func (s *ConnectionStore) SaveParams(_ context.Context, tenantID string, kind domain.SourceKind, id string, params map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[domain.ConnectionIndexName(kind, tenantID)]
	cfg, ok := ns[id]
	if !ok {
		return fmt.Errorf("%w: connection %s/%s/%s", domain.ErrNotFound, kind, tenantID, id)
	}
	cfg.Params = maps.Clone(params)
	cfg.UpdatedAt = time.Now()
	ns[id] = cfg
	return nil
}

// Get retrieves a connection config.
func (s *ConnectionStore) Get(_ context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.ConnectionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.namespaces[domain.ConnectionIndexName(kind, tenantID)][id]
	if !ok {
		return nil, fmt.Errorf("%w: connection %s/%s/%s", domain.ErrNotFound, kind, tenantID, id)
	}
	out := copyConfig(&cfg)
	return &out, nil
}

// List returns connection configs ordered by namespace then id.
func (s *ConnectionStore) List(_ context.Context, tenantID string) ([]domain.ConnectionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ConnectionConfig, 0)
	for _, ns := range s.namespaces {
		for _, cfg := range ns {
			if tenantID != "" && cfg.TenantID != tenantID {
				continue
			}
			result = append(result, copyConfig(&cfg))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Namespace() != result[j].Namespace() {
			return result[i].Namespace() < result[j].Namespace()
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveCursor advances the cursor of a connection config.
func (s *ConnectionStore) SaveCursor(_ context.Context, tenantID string, kind domain.SourceKind, id, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[domain.ConnectionIndexName(kind, tenantID)]
	cfg, ok := ns[id]
	if !ok {
		return fmt.Errorf("%w: connection %s/%s/%s", domain.ErrNotFound, kind, tenantID, id)
	}
	cfg.Cursor = cursor
	cfg.LastSync = time.Now()
	ns[id] = cfg
	return nil
}

func copyConfig(cfg *domain.ConnectionConfig) domain.ConnectionConfig {
	out := *cfg
	out.Params = maps.Clone(cfg.Params)
	return out
}
