package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ensure ConnectionService implements the interface.
var _ driving.ConnectionService = (*ConnectionService)(nil)

// ConnectionService manages connection configurations.
type ConnectionService struct {
	store      driven.ConnectionStore
	categories driven.CategoryStore
}

// NewConnectionService creates a new connection service.
// The category store is optional; when set, adding a connection also
// registers its category.
func NewConnectionService(store driven.ConnectionStore, categories driven.CategoryStore) *ConnectionService {
	return &ConnectionService{store: store, categories: categories}
}

// Add registers a new connection.
func (s *ConnectionService) Add(ctx context.Context, cfg *domain.ConnectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: connection is required", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Check if already exists
	_, err := s.store.Get(ctx, cfg.TenantID, cfg.Kind, cfg.ID)
	if err == nil {
		return fmt.Errorf("%w: connection %s", domain.ErrAlreadyExists, cfg.Key())
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get connection: %w", err)
	}

	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := s.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	if s.categories != nil {
		category := &domain.Category{
			ID:        cfg.DocumentCategory(),
			TenantID:  cfg.TenantID,
			Name:      firstNonEmpty(cfg.Name, cfg.DocumentCategory()),
			CreatedAt: now,
		}
		if err := s.categories.SaveCategory(ctx, category); err != nil {
			return fmt.Errorf("save category: %w", err)
		}
	}
	return nil
}

// Get retrieves a connection.
func (s *ConnectionService) Get(ctx context.Context, tenantID string, kind domain.SourceKind, id string) (*domain.ConnectionConfig, error) {
	return s.store.Get(ctx, tenantID, kind, id)
}

// List returns connections, optionally restricted to a tenant.
func (s *ConnectionService) List(ctx context.Context, tenantID string) ([]domain.ConnectionConfig, error) {
	return s.store.List(ctx, tenantID)
}

// SetParams updates connector parameters. An empty value removes the parameter.
func (s *ConnectionService) SetParams(
	ctx context.Context, tenantID string, kind domain.SourceKind, id string, params map[string]string,
) error {
	cfg, err := s.store.Get(ctx, tenantID, kind, id)
	if err != nil {
		return err
	}
	for k, v := range params {
		if strings.TrimSpace(v) == "" {
			delete(cfg.Params, k)
			continue
		}
		cfg.SetParam(k, v)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.store.SaveParams(ctx, tenantID, kind, id, cfg.Params)
}

// ResetCursor clears the cursor so the next sync starts from the beginning.
func (s *ConnectionService) ResetCursor(ctx context.Context, tenantID string, kind domain.SourceKind, id string) error {
	if _, err := s.store.Get(ctx, tenantID, kind, id); err != nil {
		return err
	}
	return s.store.SaveCursor(ctx, tenantID, kind, id, "")
}

// Kinds describes every supported source kind.
func (s *ConnectionService) Kinds() []domain.KindDescriptor {
	return domain.KindDescriptors()
}

// Redacted returns a copy of cfg with secret parameters masked, for display.
func Redacted(cfg *domain.ConnectionConfig) domain.ConnectionConfig {
	return cfg.Redacted()
}
