package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// defaultLimit applies when a search does not ask for a limit.
const defaultLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	TenantID string `json:"tenant_id" jsonschema:"tenant whose index is searched"`
	UserID   string `json:"user_id" jsonschema:"user on whose behalf the search runs; only their categories are searched"`
	Query    string `json:"query" jsonschema:"the search query to find documents"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset   int    `json:"offset,omitempty" jsonschema:"number of results to skip"`
	Semantic bool   `json:"semantic,omitempty" jsonschema:"use the semantic secondary index"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID  string   `json:"document_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	FileURL     string   `json:"file_url,omitempty"`
	Score       float64  `json:"score"`
	Highlights  []string `json:"highlights,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	TenantID   string `json:"tenant_id" jsonschema:"tenant owning the document"`
	UserID     string `json:"user_id" jsonschema:"user reading the document; the document's category must be granted to them"`
	DocumentID string `json:"document_id" jsonschema:"document id as returned by search"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	FileURL     string `json:"file_url,omitempty"`
	Image       string `json:"image,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search a tenant's documents within the categories granted to a user",
	}, s.handleSearch)

	if s.ports.Document != nil && s.ports.Category != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document",
			Description: "Read a document's full content",
		}, s.handleGetDocument)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		TenantID: input.TenantID,
		UserID:   input.UserID,
		Query:    input.Query,
		Limit:    limit,
		Offset:   input.Offset,
		Semantic: input.Semantic,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		doc := &results[i].Document
		output.Results[i] = SearchResultOutput{
			DocumentID:  doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
			Category:    doc.Category,
			FileURL:     doc.FileURL,
			Score:       results[i].Score,
			Highlights:  results[i].Highlights,
		}
	}

	return nil, output, nil
}

// handleGetDocument returns a document the user is allowed to read.
// Documents outside the user's categories are reported as not found.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	allowed, err := s.ports.Category.AllowedCategories(ctx, input.TenantID, input.UserID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	doc, err := s.ports.Document.Get(ctx, input.TenantID, input.DocumentID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	if !slices.Contains(allowed, doc.Category) {
		return nil, DocumentOutput{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, input.DocumentID)
	}

	return nil, DocumentOutput{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Content:     doc.Content,
		Category:    doc.Category,
		FileURL:     doc.FileURL,
		Image:       doc.Image,
	}, nil
}
