package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.SearchLogStore = (*searchLogStore)(nil)

// searchLogStore keeps created_at as unix nanoseconds.
type searchLogStore struct {
	db *sql.DB
}

func (s *searchLogStore) Append(ctx context.Context, entry *domain.SearchLog) error {
	if entry == nil || entry.TenantID == "" || entry.ID == "" {
		return fmt.Errorf("%w: search log id and tenant are required", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_logs (id, tenant_id, user_id, query, results, semantic, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TenantID, entry.UserID, entry.Query, entry.Results,
		boolToInt(entry.Semantic), entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append search log: %w", err)
	}
	return nil
}

// List returns newest first. A non-positive limit returns everything.
func (s *searchLogStore) List(ctx context.Context, tenantID string, limit int) ([]domain.SearchLog, error) {
	if limit <= 0 {
		limit = -1
	}
	out, err := collect(ctx, s.db, scanSearchLog, `
		SELECT id, tenant_id, user_id, query, results, semantic, created_at
		FROM search_logs WHERE tenant_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search logs: %w", err)
	}
	return out, nil
}

// Prune deletes entries created before cutoff and reports how many.
func (s *searchLogStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_logs WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune search logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune search logs: %w", err)
	}
	return int(n), nil
}

func scanSearchLog(row scanner) (domain.SearchLog, error) {
	var e domain.SearchLog
	var semantic int
	var created int64
	if err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Query, &e.Results, &semantic, &created); err != nil {
		return e, err
	}
	e.Semantic = semantic != 0
	e.CreatedAt = time.Unix(0, created)
	return e, nil
}
