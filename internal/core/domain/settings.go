package domain

import (
	"fmt"
	"time"
)

// SecondaryBackend selects the secondary index implementation.
type SecondaryBackend string

// Available secondary backends.
const (
	// SecondaryAzure is a hosted search service spoken to over REST.
	SecondaryAzure SecondaryBackend = "azure"

	// SecondaryVector is a local HNSW graph over embeddings.
	SecondaryVector SecondaryBackend = "vector"

	// SecondaryNone disables the secondary index. Writes to it always succeed.
	SecondaryNone SecondaryBackend = "none"
)

// IsValid returns true if the backend is recognised.
func (b SecondaryBackend) IsValid() bool {
	switch b {
	case SecondaryAzure, SecondaryVector, SecondaryNone:
		return true
	default:
		return false
	}
}

// AIProvider identifies an embedding provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// SyncSettings tunes the sync orchestrator.
type SyncSettings struct {
	// Workers bounds per-record concurrency within a batch.
	Workers int

	// BatchSize is the number of records a connector returns per fetch.
	BatchSize int

	// FetchTimeout bounds every connector call.
	FetchTimeout time.Duration

	// LockDir holds cross-process run lock files. Empty disables them.
	LockDir string
}

// WriterSettings tunes the dual-index writer.
type WriterSettings struct {
	// Timeout bounds each index call.
	Timeout time.Duration

	// MaxAttempts is the number of tries per index for retryable errors.
	MaxAttempts int
}

// ChunkerSettings configures text chunking.
type ChunkerSettings struct {
	// ChunkSize is the maximum chunk size in bytes.
	ChunkSize int
}

// AzureSettings configures the hosted secondary index.
type AzureSettings struct {
	// Endpoint is the service base URL.
	Endpoint string

	// APIKey authenticates requests.
	APIKey string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string
}

// SecondarySettings configures the secondary index.
type SecondarySettings struct {
	// Backend selects the implementation.
	Backend SecondaryBackend

	// Azure configures the hosted backend.
	Azure AzureSettings
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ExtractorSettings configures content extraction.
type ExtractorSettings struct {
	// RemoteURL is an optional text extraction service used for formats
	// no local extractor handles.
	RemoteURL string
}

// SchedulerSettings configures periodic syncing.
type SchedulerSettings struct {
	// Enabled turns the scheduler on.
	Enabled bool

	// Interval is how often every connection is synced.
	Interval time.Duration
}

// AppSettings aggregates all application settings.
type AppSettings struct {
	// DataDir holds the metadata database and local indices.
	DataDir   string
	Sync      SyncSettings
	Writer    WriterSettings
	Chunker   ChunkerSettings
	Secondary SecondarySettings
	Embedding EmbeddingSettings
	Extractor ExtractorSettings
	Scheduler SchedulerSettings
}

// Default values for settings absent from the config file.
const (
	DefaultSyncWorkers        = 4
	DefaultSyncBatchSize      = 100
	DefaultFetchTimeout       = 60 * time.Second
	DefaultWriterTimeout      = 10 * time.Second
	DefaultWriterMaxAttempts  = 3
	DefaultChunkSize          = 1000
	DefaultAzureAPIVersion    = "2023-11-01"
	DefaultSchedulerInterval  = 15 * time.Minute
	DefaultEmbeddingModelName = "nomic-embed-text"
)

// DefaultAppSettings returns the default application settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Sync: SyncSettings{
			Workers:      DefaultSyncWorkers,
			BatchSize:    DefaultSyncBatchSize,
			FetchTimeout: DefaultFetchTimeout,
		},
		Writer: WriterSettings{
			Timeout:     DefaultWriterTimeout,
			MaxAttempts: DefaultWriterMaxAttempts,
		},
		Chunker: ChunkerSettings{ChunkSize: DefaultChunkSize},
		Secondary: SecondarySettings{
			Backend: SecondaryNone,
			Azure:   AzureSettings{APIVersion: DefaultAzureAPIVersion},
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModelName,
		},
		Scheduler: SchedulerSettings{Interval: DefaultSchedulerInterval},
	}
}

// Validate checks the settings are usable.
func (s *AppSettings) Validate() error {
	if s.Sync.Workers < 1 {
		return fmt.Errorf("%w: sync.workers must be positive", ErrInvalidConfig)
	}
	if s.Sync.BatchSize < 1 {
		return fmt.Errorf("%w: sync.batch_size must be positive", ErrInvalidConfig)
	}
	if s.Writer.MaxAttempts < 1 {
		return fmt.Errorf("%w: writer.max_attempts must be positive", ErrInvalidConfig)
	}
	if s.Chunker.ChunkSize < 1 {
		return fmt.Errorf("%w: chunker.chunk_size must be positive", ErrInvalidConfig)
	}
	if !s.Secondary.Backend.IsValid() {
		return fmt.Errorf("%w: unknown secondary.backend %q", ErrInvalidConfig, s.Secondary.Backend)
	}
	switch s.Secondary.Backend {
	case SecondaryAzure:
		if s.Secondary.Azure.Endpoint == "" {
			return fmt.Errorf("%w: secondary.azure.endpoint is required", ErrInvalidConfig)
		}
	case SecondaryVector:
		if !s.Embedding.IsConfigured() {
			return fmt.Errorf("%w: vector backend needs a configured embedding provider", ErrInvalidConfig)
		}
	}
	return nil
}
