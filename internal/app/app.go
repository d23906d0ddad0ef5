// Package app wires adapters and core services into a runnable application.
package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/index/bleveindex"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-sync/internal/connectors"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/services"
	"github.com/custodia-labs/sercha-sync/internal/extractors"
	"github.com/custodia-labs/sercha-sync/internal/logger"
	"github.com/custodia-labs/sercha-sync/internal/mimesniff"
	"github.com/custodia-labs/sercha-sync/internal/postprocessors"
)

// Options select where state lives.
type Options struct {
	// ConfigDir holds config.toml. Empty means ~/.sercha-sync.
	ConfigDir string

	// Ephemeral keeps config, metadata and indices in memory.
	Ephemeral bool

	// Connectors overrides connector construction, for tests and emulators.
	Connectors connectors.Options
}

// App holds the wired services.
type App struct {
	Settings *domain.AppSettings

	ConfigStore driven.ConfigStore
	// ConfigWatcher is nil in ephemeral mode.
	ConfigWatcher driven.ConfigWatcher

	SettingsService   *services.SettingsService
	ConnectionService *services.ConnectionService
	CategoryService   *services.CategoryService
	SearchService     *services.SearchService
	DocumentService   *services.DocumentService
	SyncOrchestrator  *services.SyncOrchestrator

	Primary   driven.PrimaryIndex
	Secondary driven.SecondaryIndex

	schedulerStore driven.SchedulerStore
	searchLogs     driven.SearchLogStore
	closers        []func() error
}

// New builds every adapter and service from persisted settings.
func New(opts Options) (*App, error) {
	a := &App{}
	if err := a.build(opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(opts Options) error {
	logger.Section("Startup")

	if opts.Ephemeral {
		store := memory.NewConfigStore()
		a.ConfigStore = store
	} else {
		store, err := file.NewConfigStore(opts.ConfigDir)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		a.ConfigStore = store
		a.ConfigWatcher = store
	}

	a.SettingsService = services.NewSettingsService(a.ConfigStore)
	settings, err := a.SettingsService.Get()
	if err != nil {
		return err
	}
	if !opts.Ephemeral {
		if settings.DataDir == "" {
			settings.DataDir = filepath.Join(filepath.Dir(a.ConfigStore.Path()), "data")
		}
		if settings.Sync.LockDir == "" {
			settings.Sync.LockDir = filepath.Join(settings.DataDir, "locks")
		}
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	a.Settings = settings
	logger.Debug("data dir %q, secondary backend %q", settings.DataDir, settings.Secondary.Backend)

	var (
		connectionStore driven.ConnectionStore
		categoryStore   driven.CategoryStore
		primaryDir      string
	)
	if opts.Ephemeral {
		connectionStore = memory.NewConnectionStore()
		categoryStore = memory.NewCategoryStore()
		a.searchLogs = memory.NewSearchLogStore()
		a.schedulerStore = memory.NewSchedulerStore()
	} else {
		db, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return fmt.Errorf("open metadata store: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		connectionStore = db.ConnectionStore()
		categoryStore = db.CategoryStore()
		a.searchLogs = db.SearchLogStore()
		a.schedulerStore = db.SchedulerStore()
		primaryDir = filepath.Join(settings.DataDir, "index")
	}

	primary, err := bleveindex.New(primaryDir)
	if err != nil {
		return fmt.Errorf("open primary index: %w", err)
	}
	a.Primary = primary
	a.closers = append(a.closers, primary.Close)

	secondary, err := ai.CreateSecondaryIndex(settings)
	if err != nil {
		return fmt.Errorf("open secondary index: %w", err)
	}
	if secondary != nil {
		a.Secondary = secondary
		a.closers = append(a.closers, secondary.Close)
	}

	writer := services.NewDualIndexWriter(a.Primary, a.Secondary,
		services.WithWriterTimeout(settings.Writer.Timeout),
		services.WithMaxAttempts(settings.Writer.MaxAttempts),
	)
	access := services.NewAccessFilter(categoryStore)

	a.ConnectionService = services.NewConnectionService(connectionStore, categoryStore)
	a.CategoryService = services.NewCategoryService(categoryStore, access)
	a.SearchService = services.NewSearchService(a.Primary, a.Secondary, access, a.searchLogs)
	a.DocumentService = services.NewDocumentService(writer, a.Primary)

	chunker, err := postprocessors.ChunkerFromSettings(settings.Chunker)
	if err != nil {
		return fmt.Errorf("build chunker: %w", err)
	}
	processor := services.NewRecordProcessor(
		extractors.NewDefaultRegistry(settings.Extractor),
		mimesniff.New(),
		chunker,
		settings.Sync.FetchTimeout,
	)
	connOpts := opts.Connectors
	if connOpts.BatchSize == 0 {
		connOpts.BatchSize = settings.Sync.BatchSize
	}
	a.SyncOrchestrator = services.NewSyncOrchestrator(
		connectionStore,
		connectors.NewDefaultFactory(connOpts),
		processor,
		writer,
		nil,
		settings.Sync,
	)

	return nil
}

// NewScheduler builds a scheduler from the current scheduler settings.
// Call it again after a config reload to pick up new intervals.
func (a *App) NewScheduler() *services.Scheduler {
	return services.NewScheduler(
		a.SettingsService.SchedulePlan(),
		a.schedulerStore,
		a.SyncOrchestrator,
		a.searchLogs,
	)
}

// Close releases indices and the metadata store in reverse open order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
