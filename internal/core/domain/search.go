package domain

import "time"

// DefaultSearchLimit is used when a request leaves Limit unset.
const DefaultSearchLimit = 10

// SearchRequest is a user query against a tenant's documents.
type SearchRequest struct {
	// TenantID selects the tenant index.
	TenantID string

	// UserID is the caller; their category memberships bound the results.
	UserID string

	// Query is the free-text query.
	Query string

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Semantic routes the query to the secondary index.
	Semantic bool
}

// SearchQuery is what an index adapter executes.
type SearchQuery struct {
	// TenantID selects the index.
	TenantID string

	// Text is the free-text part, used for scoring and semantic search.
	Text string

	// Filter restricts the matching documents.
	Filter Filter

	// Limit is the maximum number of hits.
	Limit int

	// Offset is the number of hits to skip.
	Offset int
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Score is the relevance score.
	Score float64

	// Highlights contains snippets with matched terms.
	Highlights []string
}

// SearchLog records one executed query.
type SearchLog struct {
	// ID is the log entry identifier.
	ID string

	// TenantID scopes the entry.
	TenantID string

	// UserID is who searched.
	UserID string

	// Query is the query text.
	Query string

	// Results is the number of hits returned.
	Results int

	// Semantic records which index served the query.
	Semantic bool

	// CreatedAt is when the query ran.
	CreatedAt time.Time
}
