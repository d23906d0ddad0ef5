package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService writes individual documents through the dual-index writer.
type DocumentService struct {
	writer  *DualIndexWriter
	primary driven.PrimaryIndex
}

// NewDocumentService creates a new document service.
func NewDocumentService(writer *DualIndexWriter, primary driven.PrimaryIndex) *DocumentService {
	return &DocumentService{writer: writer, primary: primary}
}

// Put upserts a document into both indices. Missing descriptions are
// derived from the content.
func (s *DocumentService) Put(ctx context.Context, doc *domain.Document) (domain.WriteResult, error) {
	if doc == nil {
		return domain.WriteResult{}, fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}
	if err := doc.Validate(); err != nil {
		return domain.WriteResult{DocumentID: doc.ID}, err
	}
	if doc.Description == "" {
		doc.Description = domain.Summarize(doc.Content, domain.DescriptionLength)
	}

	result := s.writer.Upsert(ctx, doc)
	return result, result.Err()
}

// Delete removes a document from both indices.
func (s *DocumentService) Delete(ctx context.Context, tenantID, id string) (domain.WriteResult, error) {
	result := s.writer.Delete(ctx, tenantID, id)
	return result, result.Err()
}

// Get retrieves a document from the primary index.
func (s *DocumentService) Get(ctx context.Context, tenantID, id string) (*domain.Document, error) {
	if tenantID == "" || id == "" {
		return nil, fmt.Errorf("%w: tenant and document id are required", domain.ErrInvalidInput)
	}
	doc, err := s.primary.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}
