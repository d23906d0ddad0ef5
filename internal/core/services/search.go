package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// maxHighlights bounds the snippets attached to a result.
const maxHighlights = 3

// SearchService runs access-filtered queries against the primary index, or
// the secondary index for semantic queries, and logs every query.
type SearchService struct {
	primary   driven.PrimaryIndex
	secondary driven.SecondaryIndex
	access    *AccessFilter
	logs      driven.SearchLogStore
}

// NewSearchService creates a new search service.
// The secondary index and log store are optional (can be nil).
func NewSearchService(
	primary driven.PrimaryIndex,
	secondary driven.SecondaryIndex,
	access *AccessFilter,
	logs driven.SearchLogStore,
) *SearchService {
	return &SearchService{
		primary:   primary,
		secondary: secondary,
		access:    access,
		logs:      logs,
	}
}

// Search returns documents the user may see that match the query.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q tenant=%s user=%s semantic=%t", req.Query, req.TenantID, req.UserID, req.Semantic)

	if req.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}

	// Return empty for empty query
	text := strings.TrimSpace(req.Query)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	offset := max(req.Offset, 0)

	allowed, err := s.access.AllowedCategories(ctx, req.TenantID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve categories: %w", err)
	}

	filter := QueryFilter(text, allowed)
	results := []domain.SearchResult{}
	if filter.MatchesNothing() {
		logger.Debug("User %s has no categories, skipping index", req.UserID)
	} else {
		results, err = s.query(ctx, req.Semantic, domain.SearchQuery{
			TenantID: req.TenantID,
			Text:     text,
			Filter:   filter,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return nil, err
		}
		results = Permit(results, allowed)
	}

	for i := range results {
		if len(results[i].Highlights) == 0 {
			results[i].Highlights = generateHighlights(results[i].Document.Content, text)
		}
	}

	s.record(ctx, req, text, len(results))
	logger.Info("Search returned %d results", len(results))
	return results, nil
}

func (s *SearchService) query(ctx context.Context, semantic bool, q domain.SearchQuery) ([]domain.SearchResult, error) {
	if semantic {
		if s.secondary == nil {
			return nil, fmt.Errorf("%w: no secondary index configured", domain.ErrIndexUnavailable)
		}
		results, err := s.secondary.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", s.secondary.Name(), err)
		}
		return results, nil
	}
	if s.primary == nil {
		return nil, fmt.Errorf("%w: no primary index configured", domain.ErrIndexUnavailable)
	}
	results, err := s.primary.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("primary search: %w", err)
	}
	return results, nil
}

// record appends the query to the tenant's search log. Failures are logged
// and do not fail the search.
func (s *SearchService) record(ctx context.Context, req domain.SearchRequest, text string, n int) {
	if s.logs == nil {
		return
	}
	entry := &domain.SearchLog{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		Query:     text,
		Results:   n,
		Semantic:  req.Semantic,
		CreatedAt: time.Now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.Warn("Failed to log search for tenant %s: %v", req.TenantID, err)
	}
}

// RecentQueries returns a tenant's most recent logged queries.
func (s *SearchService) RecentQueries(ctx context.Context, tenantID string, limit int) ([]domain.SearchLog, error) {
	if s.logs == nil {
		return []domain.SearchLog{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	return s.logs.List(ctx, tenantID, limit)
}

// generateHighlights creates text snippets with matched terms.
func generateHighlights(content, query string) []string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, term) {
				highlights = append(highlights, domain.Summarize(sentence, 200))
				break
			}
		}
		if len(highlights) >= maxHighlights {
			break
		}
	}
	return highlights
}

// splitSentences splits content into sentences.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	// Don't forget the last sentence
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
