package driven

// Chunker splits extracted text into index-sized pieces.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Split returns the chunks of text in order. Every chunk fits the
	// configured size, joining the chunks yields text exactly, and empty
	// text yields no chunks.
	Split(text string) []string
}
