package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/mimesniff"
)

// documentNamespace is the UUIDv5 namespace document ids are derived in.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sercha.dev/sync/document"))

// DocumentID returns the deterministic id of one chunk of a record.
func DocumentID(kind domain.SourceKind, tenantID, connectionKey, recordID string, chunkIndex int) string {
	key := domain.DocumentKey(kind, tenantID, connectionKey, recordID, chunkIndex)
	return uuid.NewSHA1(documentNamespace, []byte(key)).String()
}

// RecordProcessor turns a raw record into index-ready documents:
// bytes, MIME type, text, chunks, documents.
type RecordProcessor struct {
	extractors   driven.ExtractorRegistry
	sniffer      driven.MIMESniffer
	chunker      driven.Chunker
	fetchTimeout time.Duration
}

// NewRecordProcessor creates a processor. fetchTimeout bounds RawBytes;
// zero leaves it unbounded.
func NewRecordProcessor(
	extractors driven.ExtractorRegistry,
	sniffer driven.MIMESniffer,
	chunker driven.Chunker,
	fetchTimeout time.Duration,
) *RecordProcessor {
	return &RecordProcessor{
		extractors:   extractors,
		sniffer:      sniffer,
		chunker:      chunker,
		fetchTimeout: fetchTimeout,
	}
}

// SkipError reports a record that produced no documents.
type SkipError struct {
	RecordID string
	Reason   domain.SkipReason
	Err      error
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	return fmt.Sprintf("skip record %s (%s): %v", e.RecordID, e.Reason, e.Err)
}

// Unwrap returns the cause.
func (e *SkipError) Unwrap() error {
	return e.Err
}

// Process returns the documents for rec. A record that yields nothing
// returns a *SkipError; any other error is fatal for the run.
func (p *RecordProcessor) Process(
	ctx context.Context,
	conn driven.Connector,
	cfg *domain.ConnectionConfig,
	rec *domain.RawRecord,
) ([]domain.Document, error) {
	data, err := p.bytes(ctx, conn, rec)
	if err != nil {
		if fatal(ctx, err) {
			return nil, err
		}
		return nil, &SkipError{RecordID: rec.ID, Reason: domain.SkipFetch, Err: err}
	}

	mimeType := p.ContentType(rec.MIMEType, data)
	text, err := p.extractors.Extract(ctx, data, mimeType)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reason := domain.SkipExtract
		if errors.Is(err, domain.ErrUnsupportedType) {
			reason = domain.SkipUnsupported
		}
		return nil, &SkipError{RecordID: rec.ID, Reason: reason, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return nil, &SkipError{RecordID: rec.ID, Reason: domain.SkipEmpty, Err: domain.ErrEmptyContent}
	}

	return p.documents(cfg, rec, text, int64(len(data))), nil
}

// ContentType picks the MIME type used for extraction. The declared type
// wins when it is specific and an extractor handles it; otherwise the
// payload is sniffed.
func (p *RecordProcessor) ContentType(declared string, data []byte) string {
	declared = mimesniff.Normalize(declared)
	if !mimesniff.IsGeneric(declared) && p.extractors.Supports(declared) {
		return declared
	}
	return p.sniffer.Detect(data)
}

func (p *RecordProcessor) bytes(ctx context.Context, conn driven.Connector, rec *domain.RawRecord) ([]byte, error) {
	if rec.HasInlineContent() {
		return rec.Content, nil
	}
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}
	return conn.RawBytes(ctx, rec)
}

func (p *RecordProcessor) documents(cfg *domain.ConnectionConfig, rec *domain.RawRecord, text string, size int64) []domain.Document {
	if rec.Size > 0 {
		size = rec.Size
	}
	title := firstNonEmpty(rec.Title, rec.Name, rec.ID)
	image, _ := rec.Metadata[domain.FieldImage].(string)

	chunks := p.chunker.Split(text)
	docs := make([]domain.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, domain.Document{
			ID:           DocumentID(cfg.Kind, cfg.TenantID, cfg.Key(), rec.ID, i),
			Title:        title,
			Description:  domain.Summarize(chunk, domain.DescriptionLength),
			Content:      chunk,
			Category:     cfg.DocumentCategory(),
			TenantID:     cfg.TenantID,
			FileURL:      rec.URL,
			FileSizeMB:   domain.BytesToMB(size),
			UploadedAt:   rec.ModifiedAt,
			Image:        image,
			ConnectionID: cfg.ID,
			RecordID:     rec.ID,
			ChunkIndex:   i,
		})
	}
	return docs
}

// fatal reports whether a RawBytes failure must stop the run rather than
// skip the record. Only failures tied to the record itself are skipped;
// anything else, including transient errors and fetch deadlines, leaves
// the cursor where it was so the next run fetches the record again.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return !errors.Is(err, domain.ErrRecordDecode) &&
		!errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrUnsupportedType) &&
		!errors.Is(err, domain.ErrEmptyContent)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
