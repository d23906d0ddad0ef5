package driven

import "context"

// ConfigStore is a flat key space of settings. Keys are dotted paths such
// as "sync.workers" or "secondary.azure.endpoint"; the typed getters
// return the zero value for missing keys and values of another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// Set stores value. Persistent stores write it out before returning.
	Set(key string, value any) error

	// Keys returns every key currently set, sorted.
	Keys() []string

	// Load rereads the backing storage.
	Load() error

	// Path names the backing storage.
	Path() string
}

// ConfigWatcher reports changes to persisted configuration.
type ConfigWatcher interface {
	// Watch reloads the configuration and calls onChange after each change
	// to the underlying file, until ctx ends.
	Watch(ctx context.Context, onChange func()) error
}
