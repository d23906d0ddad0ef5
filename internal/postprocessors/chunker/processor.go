// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default maximum chunk size in bytes.
const DefaultChunkSize = 1000

// Processor splits text into chunks of at most chunkSize bytes.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Split splits text into chunks.
func (p *Processor) Split(text string) []string {
	return Chunk(text, p.chunkSize)
}

// Chunk splits text into pieces of at most maxSize bytes whose
// concatenation is text. A UTF-8 sequence is never split: when maxSize is
// smaller than a rune the rune forms a chunk on its own. Within each window
// the cut is moved back to just after the last whitespace in the window's
// final quarter, if there is one. Empty text yields no chunks.
func Chunk(text string, maxSize int) []string {
	if text == "" {
		return nil
	}
	if maxSize < 1 {
		maxSize = 1
	}

	chunks := make([]string, 0, len(text)/maxSize+1)
	for len(text) > maxSize {
		end := cut(text, maxSize)
		chunks = append(chunks, text[:end])
		text = text[end:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// cut returns the end of the next chunk. len(text) > maxSize.
func cut(text string, maxSize int) int {
	end := maxSize
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == 0 {
		_, width := utf8.DecodeRuneInString(text)
		return width
	}

	floor := end - end/4
	if i := strings.LastIndexFunc(text[floor:end], unicode.IsSpace); i >= 0 {
		_, width := utf8.DecodeRuneInString(text[floor+i:])
		return floor + i + width
	}
	return end
}
