package driven

import "context"

// VectorIndex provides similarity search over embeddings.
// Backed by an HNSW graph for approximate nearest neighbour search.
type VectorIndex interface {
	// Add inserts or replaces the vector for id.
	Add(ctx context.Context, id string, embedding []float32) error

	// Delete removes a vector. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of live vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched document id.
	ID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
