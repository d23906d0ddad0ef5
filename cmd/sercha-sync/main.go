// Command sercha-sync syncs external sources into tenant search indices.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-sync/internal/app"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap(opts cli.BootstrapOptions) (*cli.Services, error) {
	a, err := app.New(app.Options{
		ConfigDir: opts.ConfigDir,
		Ephemeral: opts.Ephemeral,
	})
	if err != nil {
		logger.Error("startup failed: %v", err)
		return nil, err
	}

	services := &cli.Services{
		Search:     a.SearchService,
		Document:   a.DocumentService,
		Connection: a.ConnectionService,
		Category:   a.CategoryService,
		Settings:   a.SettingsService,
		Sync:       a.SyncOrchestrator,
		NewScheduler: func() driving.Scheduler {
			return a.NewScheduler()
		},
		Close: a.Close,
	}
	if a.ConfigWatcher != nil {
		services.ConfigWatcher = a.ConfigWatcher
	}
	return services, nil
}
