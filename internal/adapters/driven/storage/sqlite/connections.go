package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.ConnectionStore = (*connectionStore)(nil)

// connectionStore keys rows by the connection namespace and id, so the
// same id may exist under different kinds or tenants.
type connectionStore struct {
	db *sql.DB
}

const connectionColumns = `id, tenant_id, kind, name, category, content_field, title_field,
	params, cursor, last_sync, created_at, updated_at`

func (s *connectionStore) Save(ctx context.Context, cfg *domain.ConnectionConfig) error {
	if cfg == nil || cfg.ID == "" {
		return fmt.Errorf("%w: connection id is required", domain.ErrInvalidInput)
	}
	params := cfg.Params
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connections (namespace, `+connectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			name          = excluded.name,
			category      = excluded.category,
			content_field = excluded.content_field,
			title_field   = excluded.title_field,
			params        = excluded.params,
			updated_at    = excluded.updated_at`,
		cfg.Namespace(), cfg.ID, cfg.TenantID, string(cfg.Kind), cfg.Name, cfg.Category,
		cfg.ContentField, cfg.TitleField, string(raw), cfg.Cursor,
		formatNullableTime(cfg.LastSync), formatNullableTime(cfg.CreatedAt), formatNullableTime(cfg.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save connection %s: %w", cfg.Key(), err)
	}
	return nil
}

func (s *connectionStore) Get(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.ConnectionConfig, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+connectionColumns+" FROM connections WHERE namespace = ? AND id = ?",
		domain.ConnectionIndexName(kind, tenantID), id)
	cfg, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: connection %s/%s/%s", domain.ErrNotFound, kind, tenantID, id)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List orders by namespace then id. An empty tenant lists every tenant.
func (s *connectionStore) List(ctx context.Context, tenantID string) ([]domain.ConnectionConfig, error) {
	query := "SELECT " + connectionColumns + " FROM connections"
	var args []any
	if tenantID != "" {
		query += " WHERE tenant_id = ?"
		args = append(args, tenantID)
	}
	query += " ORDER BY namespace, id"

	out, err := collect(ctx, s.db, scanConnection, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return out, nil
}

// SaveParams replaces params without touching the cursor columns.
func (s *connectionStore) SaveParams(ctx context.Context, tenantID string, kind domain.SourceKind, id string, params map[string]string) error {
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE connections SET params = ?, updated_at = ? WHERE namespace = ? AND id = ?",
		string(raw), formatNullableTime(time.Now()), domain.ConnectionIndexName(kind, tenantID), id)
	if err != nil {
		return fmt.Errorf("save params: %w", err)
	}
	return requireRow(res, kind, tenantID, id)
}

// SaveCursor stores cursor and stamps LastSync with the current time.
func (s *connectionStore) SaveCursor(ctx context.Context, tenantID string, kind domain.SourceKind, id, cursor string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE connections SET cursor = ?, last_sync = ? WHERE namespace = ? AND id = ?",
		cursor, formatNullableTime(time.Now()), domain.ConnectionIndexName(kind, tenantID), id)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return requireRow(res, kind, tenantID, id)
}

// requireRow turns an update that matched nothing into ErrNotFound.
func requireRow(res sql.Result, kind domain.SourceKind, tenantID, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: connection %s/%s/%s", domain.ErrNotFound, kind, tenantID, id)
	}
	return nil
}

func scanConnection(row scanner) (domain.ConnectionConfig, error) {
	var (
		cfg                        domain.ConnectionConfig
		kind, params               string
		lastSync, created, updated sql.NullString
	)
	err := row.Scan(&cfg.ID, &cfg.TenantID, &kind, &cfg.Name, &cfg.Category,
		&cfg.ContentField, &cfg.TitleField, &params, &cfg.Cursor,
		&lastSync, &created, &updated)
	if err != nil {
		return cfg, err
	}
	cfg.Kind = domain.SourceKind(kind)
	if err := json.Unmarshal([]byte(params), &cfg.Params); err != nil {
		return cfg, fmt.Errorf("decode params of %s: %w", cfg.ID, err)
	}
	cfg.LastSync = parseNullableTime(lastSync)
	cfg.CreatedAt = parseNullableTime(created)
	cfg.UpdatedAt = parseNullableTime(updated)
	return cfg, nil
}
