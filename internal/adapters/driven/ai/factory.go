// Package ai provides factory functions for creating embedding services and
// the secondary search index that depends on them.
package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-sync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-sync/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/index/azuresearch"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/index/vector"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// vectorDirName is the directory under the data dir holding HNSW graphs.
const vectorDirName = "vectors"

// embeddingDimensions maps known model names to their vector size.
var embeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-sync settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
// Used by the settings command to check credentials when they change.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc != nil {
		return svc.Close()
	}
	return nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateSecondaryIndex builds the secondary index selected by settings.
// Returns nil when the backend is "none"; the writer treats a nil secondary
// as always succeeding.
func CreateSecondaryIndex(settings *domain.AppSettings) (driven.SecondaryIndex, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}

	switch settings.Secondary.Backend {
	case domain.SecondaryNone, "":
		return nil, nil

	case domain.SecondaryAzure:
		azure := settings.Secondary.Azure
		idx, err := azuresearch.New(azuresearch.Config{
			Endpoint:   azure.Endpoint,
			APIKey:     azure.APIKey,
			APIVersion: azure.APIVersion,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.SecondaryVector:
		embedder, err := CreateEmbeddingService(&settings.Embedding)
		if err != nil {
			return nil, err
		}
		if embedder == nil {
			return nil, fmt.Errorf("%w: vector backend needs a configured embedding provider",
				domain.ErrEmbeddingUnavailable)
		}
		dir := ""
		if settings.DataDir != "" {
			dir = filepath.Join(settings.DataDir, vectorDirName)
		}
		idx, err := vector.New(embedder, dir)
		if err != nil {
			embedder.Close()
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("%w: unknown secondary backend %q", domain.ErrInvalidConfig, settings.Secondary.Backend)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := embeddingDimensions[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// openaiRequestsPerSecond keeps a full resync under the default tier limit.
const openaiRequestsPerSecond = 50

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        embeddingDimensions[settings.Model],
		RequestsPerSecond: openaiRequestsPerSecond,
	})
}
