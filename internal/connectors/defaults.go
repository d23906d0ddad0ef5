package connectors

import (
	"context"
	"net/http"

	"github.com/custodia-labs/sercha-sync/internal/connectors/dropbox"
	"github.com/custodia-labs/sercha-sync/internal/connectors/google"
	"github.com/custodia-labs/sercha-sync/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-sync/internal/connectors/google/drive"
	"github.com/custodia-labs/sercha-sync/internal/connectors/google/gcs"
	"github.com/custodia-labs/sercha-sync/internal/connectors/mongodb"
	"github.com/custodia-labs/sercha-sync/internal/connectors/sqldb"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Options are shared by every built connector.
type Options struct {
	// BatchSize is the number of records per fetch.
	BatchSize int

	// HTTPClient overrides the client of REST based connectors.
	HTTPClient *http.Client

	// Endpoints overrides the API base URL per kind, for tests and
	// emulators.
	Endpoints map[domain.SourceKind]string
}

// RegisterDefaults registers builders for every supported kind.
func RegisterDefaults(f driven.ConnectorFactory, opts Options) {
	driveLimiter := throttle.New(google.DriveLimits)
	storageLimiter := throttle.New(google.StorageLimits)

	f.Register(domain.KindSQL, func(_ context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
		c, err := sqldb.New(cfg, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	f.Register(domain.KindMongoDB, func(ctx context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
		c, err := mongodb.New(ctx, cfg, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	f.Register(domain.KindGoogleDrive, func(ctx context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
		svc, err := google.NewDriveService(ctx, cfg, google.ServiceOptions{
			HTTPClient: opts.HTTPClient,
			Endpoint:   opts.Endpoints[domain.KindGoogleDrive],
		})
		if err != nil {
			return nil, err
		}
		c, err := drive.New(cfg, svc, driveLimiter, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	f.Register(domain.KindGCS, func(ctx context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
		svc, err := google.NewStorageService(ctx, cfg, google.ServiceOptions{
			HTTPClient: opts.HTTPClient,
			Endpoint:   opts.Endpoints[domain.KindGCS],
		})
		if err != nil {
			return nil, err
		}
		c, err := gcs.New(cfg, svc, storageLimiter, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		return c, nil
	})

	f.Register(domain.KindDropbox, func(_ context.Context, cfg *domain.ConnectionConfig) (driven.Connector, error) {
		c, err := dropbox.New(cfg, dropbox.Options{
			BatchSize:  opts.BatchSize,
			HTTPClient: opts.HTTPClient,
			BaseURL:    opts.Endpoints[domain.KindDropbox],
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// NewDefaultFactory returns a factory with every kind registered.
func NewDefaultFactory(opts Options) *Factory {
	f := NewFactory()
	RegisterDefaults(f, opts)
	return f
}
