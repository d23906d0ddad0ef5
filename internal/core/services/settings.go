package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir            = "data_dir"
	keySyncWorkers        = "sync.workers"
	keySyncBatchSize      = "sync.batch_size"
	keySyncFetchTimeout   = "sync.fetch_timeout"
	keySyncLockDir        = "sync.lock_dir"
	keyWriterTimeout      = "writer.timeout"
	keyWriterMaxAttempts  = "writer.max_attempts"
	keyChunkSize          = "chunker.chunk_size"
	keySecondaryBackend   = "secondary.backend"
	keyAzureEndpoint      = "secondary.azure.endpoint"
	keyAzureAPIKey        = "secondary.azure.api_key"
	keyAzureAPIVersion    = "secondary.azure.api_version"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyExtractorRemoteURL = "extractor.remote_url"
	keySchedulerEnabled   = "scheduler.enabled"
	keySchedulerInterval  = "scheduler.interval"
	keySchedulerPrune     = "scheduler.prune_interval"
)

// valueKind is how a setting's string form is parsed.
type valueKind int

const (
	kindString valueKind = iota
	kindPositiveInt
	kindBool
	kindDuration
	kindBackend
	kindProvider
)

var settingKinds = map[string]valueKind{
	keyDataDir:            kindString,
	keySyncWorkers:        kindPositiveInt,
	keySyncBatchSize:      kindPositiveInt,
	keySyncFetchTimeout:   kindDuration,
	keySyncLockDir:        kindString,
	keyWriterTimeout:      kindDuration,
	keyWriterMaxAttempts:  kindPositiveInt,
	keyChunkSize:          kindPositiveInt,
	keySecondaryBackend:   kindBackend,
	keyAzureEndpoint:      kindString,
	keyAzureAPIKey:        kindString,
	keyAzureAPIVersion:    kindString,
	keyEmbedProvider:      kindProvider,
	keyEmbedModel:         kindString,
	keyEmbedBaseURL:       kindString,
	keyEmbedAPIKey:        kindString,
	keyExtractorRemoteURL: kindString,
	keySchedulerEnabled:   kindBool,
	keySchedulerInterval:  kindDuration,
	keySchedulerPrune:     kindDuration,
}

// SettingsService manages application settings stored in the config file.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DataDir: s.getString(keyDataDir, d.DataDir),
		Sync: domain.SyncSettings{
			Workers:      s.getInt(keySyncWorkers, d.Sync.Workers),
			BatchSize:    s.getInt(keySyncBatchSize, d.Sync.BatchSize),
			FetchTimeout: s.getDuration(keySyncFetchTimeout, d.Sync.FetchTimeout),
			LockDir:      s.getString(keySyncLockDir, d.Sync.LockDir),
		},
		Writer: domain.WriterSettings{
			Timeout:     s.getDuration(keyWriterTimeout, d.Writer.Timeout),
			MaxAttempts: s.getInt(keyWriterMaxAttempts, d.Writer.MaxAttempts),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunker.ChunkSize),
		},
		Secondary: domain.SecondarySettings{
			Backend: domain.SecondaryBackend(s.getString(keySecondaryBackend, string(d.Secondary.Backend))),
			Azure: domain.AzureSettings{
				Endpoint:   s.configStore.GetString(keyAzureEndpoint),
				APIKey:     s.configStore.GetString(keyAzureAPIKey),
				APIVersion: s.getString(keyAzureAPIVersion, d.Secondary.Azure.APIVersion),
			},
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Extractor: domain.ExtractorSettings{
			RemoteURL: s.configStore.GetString(keyExtractorRemoteURL),
		},
		Scheduler: domain.SchedulerSettings{
			Enabled:  s.getBool(keySchedulerEnabled, d.Scheduler.Enabled),
			Interval: s.getDuration(keySchedulerInterval, d.Scheduler.Interval),
		},
	}

	return settings, nil
}

// Set parses value according to key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindPositiveInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration such as 30s or 15m", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindBackend:
		if !domain.SecondaryBackend(value).IsValid() {
			return fmt.Errorf("%w: %s must be azure, vector or none", domain.ErrInvalidInput, key)
		}
		parsed = value
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: %s must be ollama or openai", domain.ErrInvalidInput, key)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SchedulePlan returns the tasks the scheduler should run. The scheduler
// stays idle until scheduler.enabled is set.
func (s *SettingsService) SchedulePlan() domain.SchedulePlan {
	return domain.NewSchedulePlan(
		s.getBool(keySchedulerEnabled, false),
		s.getDuration(keySchedulerInterval, domain.DefaultSchedulerInterval),
		s.getDuration(keySchedulerPrune, domain.DefaultPruneInterval),
	)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
