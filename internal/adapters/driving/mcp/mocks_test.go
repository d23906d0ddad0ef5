package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	lastReq domain.SearchRequest
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

func (m *mockSearchService) RecentQueries(_ context.Context, _ string, _ int) ([]domain.SearchLog, error) {
	return nil, m.err
}

// mockConnectionService is a mock implementation of driving.ConnectionService.
type mockConnectionService struct {
	connections []domain.ConnectionConfig
	err         error
}

func (m *mockConnectionService) Add(_ context.Context, _ *domain.ConnectionConfig) error {
	return m.err
}

func (m *mockConnectionService) Get(_ context.Context, _ string, _ domain.SourceKind, _ string) (*domain.ConnectionConfig, error) {
	if len(m.connections) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.connections[0], m.err
}

func (m *mockConnectionService) List(_ context.Context, _ string) ([]domain.ConnectionConfig, error) {
	return m.connections, m.err
}

func (m *mockConnectionService) SetParams(_ context.Context, _ string, _ domain.SourceKind, _ string, _ map[string]string) error {
	return m.err
}

func (m *mockConnectionService) ResetCursor(_ context.Context, _ string, _ domain.SourceKind, _ string) error {
	return m.err
}

func (m *mockConnectionService) Kinds() []domain.KindDescriptor {
	return domain.KindDescriptors()
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	err      error
}

func (m *mockDocumentService) Put(_ context.Context, doc *domain.Document) (domain.WriteResult, error) {
	return domain.WriteResult{DocumentID: doc.ID, Outcome: domain.OutcomeBothSucceeded}, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, id string) (domain.WriteResult, error) {
	return domain.WriteResult{DocumentID: id, Outcome: domain.OutcomeBothSucceeded}, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _, _ string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.document == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, nil
}

// mockCategoryService is a mock implementation of driving.CategoryService.
type mockCategoryService struct {
	categories []domain.Category
	allowed    []string
	err        error
}

func (m *mockCategoryService) Add(_ context.Context, _ *domain.Category) error {
	return m.err
}

func (m *mockCategoryService) List(_ context.Context, _ string) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryService) Grant(_ context.Context, _, _ string, _ ...string) error {
	return m.err
}

func (m *mockCategoryService) Revoke(_ context.Context, _, _ string, _ ...string) error {
	return m.err
}

func (m *mockCategoryService) AllowedCategories(_ context.Context, _, _ string) ([]string, error) {
	return m.allowed, m.err
}
