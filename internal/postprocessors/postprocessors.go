// Package postprocessors turns chunker settings into the Chunker used by
// the sync pipeline.
package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/postprocessors/chunker"
)

// MaxChunkSize caps a single chunk at 1 MiB.
const MaxChunkSize = 1 << 20

// ChunkerFromSettings builds the chunker for settings. A zero size selects
// the chunker default.
func ChunkerFromSettings(settings domain.ChunkerSettings) (driven.Chunker, error) {
	switch size := settings.ChunkSize; {
	case size < 0:
		return nil, fmt.Errorf("%w: chunk size %d is negative", domain.ErrInvalidConfig, size)
	case size > MaxChunkSize:
		return nil, fmt.Errorf("%w: chunk size %d exceeds %d", domain.ErrInvalidConfig, size, MaxChunkSize)
	case size == 0:
		return chunker.New(), nil
	default:
		return chunker.New(chunker.WithChunkSize(size)), nil
	}
}
