package domain

import "time"

// RawRecord is one item fetched from a source, before extraction.
// Content is set when the source returns bytes inline (sql, mongodb collections);
// file sources leave it empty and the bytes are fetched separately.
type RawRecord struct {
	// ID is the source-native identifier (row id, ObjectID hex, file id, object name).
	ID string

	// Name is the file or object name, when the source has one.
	Name string

	// Title is the display title.
	Title string

	// MIMEType is the type declared by the source. May be empty or wrong.
	MIMEType string

	// Size is the payload size in bytes, 0 when unknown.
	Size int64

	// ModifiedAt is the source's last-modified timestamp.
	ModifiedAt time.Time

	// Content holds inline bytes.
	Content []byte

	// URL links back to the item in the source.
	URL string

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}

// HasInlineContent returns true when the bytes came with the record.
func (r *RawRecord) HasInlineContent() bool {
	return r.Content != nil
}

// Batch is one page returned by a connector.
type Batch struct {
	// Records in source order.
	Records []RawRecord

	// NextCursor is the watermark after the last record of this batch.
	// Equal to the input cursor when Records is empty.
	NextCursor string

	// HasMore is false when the source has nothing beyond NextCursor.
	HasMore bool
}

// Empty returns true when the batch carries no records.
func (b *Batch) Empty() bool {
	return b == nil || len(b.Records) == 0
}

// ExtractedContent is the text pulled out of a payload.
type ExtractedContent struct {
	// Text is the plain text.
	Text string

	// MIMEType is the type the extractor was selected for.
	MIMEType string
}
