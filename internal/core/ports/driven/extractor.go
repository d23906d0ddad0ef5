package driven

import "context"

// Extractor turns a payload of a given format into plain text.
// Each extractor handles specific MIME types (e.g., PDF, DOCX, HTML).
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors return 50-89.
	// Fallback extractors return 1-9.
	Priority() int

	// Extract returns the text content of data.
	// Malformed payloads return an error wrapping domain.ErrRecordDecode.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry dispatches payloads to extractors by MIME type.
type ExtractorRegistry interface {
	// Extract returns the text of data using the best extractor for mimeType.
	// Returns an error wrapping domain.ErrUnsupportedType when none matches.
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)

	// Supports reports whether an extractor is registered for mimeType.
	Supports(mimeType string) bool

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}

// MIMESniffer infers a payload's MIME type from its bytes.
type MIMESniffer interface {
	// Detect returns the MIME type of data. It never fails and is deterministic.
	Detect(data []byte) string
}
