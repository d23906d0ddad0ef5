package driving

import "github.com/custodia-labs/sercha-sync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by its dotted key after validating it.
	Set(key, value string) error

	// Keys returns every recognised setting key.
	Keys() []string
}
