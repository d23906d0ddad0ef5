package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					Document: domain.Document{
						ID:       "doc-1",
						Title:    "Leave policy",
						Category: "hr",
						FileURL:  "https://intranet/leave.pdf",
					},
					Score:      0.95,
					Highlights: []string{"annual leave"},
				},
			},
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{TenantID: "acme", UserID: "alice", Query: "leave", Limit: 5, Semantic: true}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "hr", output.Results[0].Category)
		assert.Equal(t, "https://intranet/leave.pdf", output.Results[0].FileURL)
		assert.Equal(t, []string{"annual leave"}, output.Results[0].Highlights)

		assert.Equal(t, domain.SearchRequest{
			TenantID: "acme", UserID: "alice", Query: "leave", Limit: 5, Semantic: true,
		}, mockSearch.lastReq)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{TenantID: "acme", Query: "x"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 10, mockSearch.lastReq.Limit)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{err: errors.New("search failed")}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleGetDocument(t *testing.T) {
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-1", TenantID: "acme", Title: "Payroll", Content: "Paid monthly", Category: "finance"}

	tests := []struct {
		name    string
		allowed []string
		docs    *mockDocumentService
		wantErr error
	}{
		{name: "granted category", allowed: []string{"finance", "hr"}, docs: &mockDocumentService{document: doc}},
		{name: "category not granted", allowed: []string{"hr"}, docs: &mockDocumentService{document: doc}, wantErr: domain.ErrNotFound},
		{name: "no membership", docs: &mockDocumentService{document: doc}, wantErr: domain.ErrNotFound},
		{name: "missing document", allowed: []string{"finance"}, docs: &mockDocumentService{}, wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{
				Search:   &mockSearchService{},
				Document: tt.docs,
				Category: &mockCategoryService{allowed: tt.allowed},
			})
			require.NoError(t, err)

			_, out, err := server.handleGetDocument(ctx, nil, GetDocumentInput{
				TenantID: "acme", UserID: "alice", DocumentID: "doc-1",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Paid monthly", out.Content)
			assert.Equal(t, "finance", out.Category)
		})
	}
}
