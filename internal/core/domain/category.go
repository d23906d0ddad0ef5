package domain

import (
	"sort"
	"strings"
	"time"
)

// Category is a tenant-scoped grouping of documents. Every connection feeds
// exactly one category.
type Category struct {
	// ID is the category identifier, shared with the feeding connection.
	ID string

	// TenantID scopes the category.
	TenantID string

	// Name is the display name.
	Name string

	// Description explains what the category holds.
	Description string

	// CreatedAt is when the category was created.
	CreatedAt time.Time
}

// CategoryMembership lists the categories a user may search.
// Categories is stored comma-separated, the way membership records arrive.
type CategoryMembership struct {
	// TenantID scopes the membership.
	TenantID string

	// UserID identifies the user.
	UserID string

	// Categories is a comma-separated list of category ids.
	Categories string

	// UpdatedAt is when the membership last changed.
	UpdatedAt time.Time
}

// CategoryIDs decodes the membership's category list.
func (m *CategoryMembership) CategoryIDs() []string {
	return ParseCategoryList(m.Categories)
}

// ParseCategoryList splits a comma-separated list, trims entries, drops
// empties and duplicates, and sorts the result.
func ParseCategoryList(s string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// JoinCategoryList normalises ids and joins them with commas.
func JoinCategoryList(ids []string) string {
	return strings.Join(ParseCategoryList(strings.Join(ids, ",")), ",")
}
