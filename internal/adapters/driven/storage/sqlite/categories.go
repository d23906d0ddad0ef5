package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.CategoryStore = (*categoryStore)(nil)

type categoryStore struct {
	db *sql.DB
}

func (s *categoryStore) SaveCategory(ctx context.Context, c *domain.Category) error {
	if c == nil || c.ID == "" || c.TenantID == "" {
		return fmt.Errorf("%w: category id and tenant are required", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (tenant_id, id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			created_at  = excluded.created_at`,
		c.TenantID, c.ID, c.Name, c.Description, formatNullableTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("save category %s/%s: %w", c.TenantID, c.ID, err)
	}
	return nil
}

func (s *categoryStore) ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error) {
	out, err := collect(ctx, s.db, func(row scanner) (domain.Category, error) {
		var c domain.Category
		var created sql.NullString
		err := row.Scan(&c.TenantID, &c.ID, &c.Name, &c.Description, &created)
		c.CreatedAt = parseNullableTime(created)
		return c, err
	}, `SELECT tenant_id, id, name, description, created_at
		FROM categories WHERE tenant_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// GetMembership returns ErrNotFound when the user has never been granted
// a category.
func (s *categoryStore) GetMembership(ctx context.Context, tenantID, userID string) (*domain.CategoryMembership, error) {
	m := domain.CategoryMembership{TenantID: tenantID, UserID: userID}
	var updated sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT categories, updated_at FROM category_memberships WHERE tenant_id = ? AND user_id = ?",
		tenantID, userID).Scan(&m.Categories, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: membership %s/%s", domain.ErrNotFound, tenantID, userID)
	case err != nil:
		return nil, fmt.Errorf("get membership: %w", err)
	}
	m.UpdatedAt = parseNullableTime(updated)
	return &m, nil
}

func (s *categoryStore) SaveMembership(ctx context.Context, m *domain.CategoryMembership) error {
	if m == nil || m.TenantID == "" || m.UserID == "" {
		return fmt.Errorf("%w: membership tenant and user are required", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_memberships (tenant_id, user_id, categories, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id, user_id) DO UPDATE SET
			categories = excluded.categories,
			updated_at = excluded.updated_at`,
		m.TenantID, m.UserID, m.Categories, formatNullableTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save membership %s/%s: %w", m.TenantID, m.UserID, err)
	}
	return nil
}
