package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// It is required by the vector secondary index and unused otherwise.
//
// Implementations include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible endpoints (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
