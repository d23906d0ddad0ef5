package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// ServiceOptions override how API clients are built.
type ServiceOptions struct {
	// HTTPClient replaces the authenticated transport.
	HTTPClient *http.Client

	// Endpoint replaces the API base URL. An endpoint without credentials
	// is called unauthenticated, as emulators expect.
	Endpoint string
}

// clientOptions resolves credentials for cfg.
func clientOptions(cfg *domain.ConnectionConfig, opts ServiceOptions, scope string) []option.ClientOption {
	var out []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		out = append(out, option.WithHTTPClient(opts.HTTPClient))
	case cfg.Param(domain.ParamCredentialsJSON) != "":
		out = append(out,
			option.WithCredentialsJSON([]byte(cfg.Param(domain.ParamCredentialsJSON))),
			option.WithScopes(scope),
		)
	case cfg.Param(domain.ParamToken) != "":
		out = append(out, option.WithTokenSource(NewTokenSource(cfg)))
	case opts.Endpoint != "":
		out = append(out, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		out = append(out, option.WithEndpoint(opts.Endpoint))
	}
	return out
}

// NewDriveService creates a Google Drive API client for cfg.
func NewDriveService(ctx context.Context, cfg *domain.ConnectionConfig, opts ServiceOptions) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, clientOptions(cfg, opts, drive.DriveReadonlyScope)...)
	if err != nil {
		return nil, fmt.Errorf("%w: drive client: %w", domain.ErrAuthInvalid, err)
	}
	return svc, nil
}

// NewStorageService creates a Cloud Storage JSON API client for cfg.
func NewStorageService(ctx context.Context, cfg *domain.ConnectionConfig, opts ServiceOptions) (*storage.Service, error) {
	svc, err := storage.NewService(ctx, clientOptions(cfg, opts, storage.DevstorageReadOnlyScope)...)
	if err != nil {
		return nil, fmt.Errorf("%w: storage client: %w", domain.ErrAuthInvalid, err)
	}
	return svc, nil
}
