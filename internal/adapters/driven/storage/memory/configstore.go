package memory

import (
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps dotted configuration keys in a map. It backs
// --ephemeral runs and is embedded by the TOML store, which adds
// persistence on top.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get returns the raw value for key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns key as a string, or "" when unset or not a string.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns key as an int. Decoders hand back int64 or float64, and
// numeric strings are accepted.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// GetBool returns key as a bool. "true" and "false" strings are accepted.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(key, value, nil)
}

// Update stores value under key and hands the resulting key space to
// persist while still holding the lock. When persist fails the previous
// value is restored.
func (s *ConfigStore) Update(key string, value any, persist func(map[string]any) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if persist == nil {
		return nil
	}
	if err := persist(s.values); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Replace swaps the whole key space for values.
func (s *ConfigStore) Replace(values map[string]any) {
	s.mu.Lock()
	s.values = maps.Clone(values)
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.mu.Unlock()
}

// Keys returns every key currently set, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path identifies the store as in-memory.
func (s *ConfigStore) Path() string { return ":memory:" }
