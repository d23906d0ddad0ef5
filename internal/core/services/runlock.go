package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// RunLock guarantees a single active sync per connection.
// Within the process it is a keyed set; when a lock directory is configured
// every key is also backed by a file lock so that separate processes
// exclude each other.
type RunLock struct {
	dir string

	mu   sync.Mutex
	held map[string]*flock.Flock
}

// NewRunLock creates a run lock. An empty dir disables file locking.
func NewRunLock(dir string) *RunLock {
	return &RunLock{
		dir:  dir,
		held: make(map[string]*flock.Flock),
	}
}

// TryLock acquires the lock for key without blocking.
// Returns domain.ErrSyncInProgress if it is held here or by another process.
// The returned function releases the lock and is safe to call more than once.
func (l *RunLock) TryLock(key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, key)
	}

	var fl *flock.Flock
	if l.dir != "" {
		if err := os.MkdirAll(l.dir, 0755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
		fl = flock.New(filepath.Join(l.dir, lockFileName(key)))
		acquired, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: %s is locked by another process", domain.ErrSyncInProgress, key)
		}
	}
	l.held[key] = fl

	var once sync.Once
	return func() { once.Do(func() { l.unlock(key) }) }, nil
}

// Held reports whether key is locked by this process.
func (l *RunLock) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

func (l *RunLock) unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fl, ok := l.held[key]
	if !ok {
		return
	}
	delete(l.held, key)
	if fl != nil {
		_ = fl.Unlock()
	}
}

// lockFileName maps a connection key to a file name.
func lockFileName(key string) string {
	r := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	return r.Replace(key) + ".lock"
}
