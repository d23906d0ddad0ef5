// Package cli provides the cobra command tree for sercha-sync.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Services are the ports the commands drive.
type Services struct {
	Search     driving.SearchService
	Document   driving.DocumentService
	Connection driving.ConnectionService
	Category   driving.CategoryService
	Settings   driving.SettingsService
	Sync       driving.SyncOrchestrator

	// NewScheduler builds a scheduler from the current settings.
	NewScheduler func() driving.Scheduler

	// ConfigWatcher is nil when config is not file-backed.
	ConfigWatcher driven.ConfigWatcher

	// Close releases whatever the bootstrap opened.
	Close func() error
}

// BootstrapOptions are the root flags relevant to wiring.
type BootstrapOptions struct {
	ConfigDir string
	Ephemeral bool
}

// Bootstrap builds the services for a command invocation.
type Bootstrap func(opts BootstrapOptions) (*Services, error)

var (
	version = "dev"

	verbose   bool
	configDir string
	ephemeral bool

	bootstrap Bootstrap
	closeFn   func() error

	searchService     driving.SearchService
	documentService   driving.DocumentService
	connectionService driving.ConnectionService
	categoryService   driving.CategoryService
	settingsService   driving.SettingsService
	syncOrchestrator  driving.SyncOrchestrator
	newScheduler      func() driving.Scheduler
	configWatcher     driven.ConfigWatcher
)

// annotationNoServices marks commands that run without wiring.
const annotationNoServices = "no-services"

var rootCmd = &cobra.Command{
	Use:   "sercha-sync",
	Short: "Sync external sources into tenant search indices",
	Long: `sercha-sync pulls records from SQL databases, MongoDB, Google Drive,
Dropbox and Cloud Storage, extracts their text, and writes the resulting
documents to a primary and a secondary search index.

A connection's cursor only advances once both indices accepted the batch.`,
	SilenceUsage:       true,
	PersistentPreRunE:  persistentPreRun,
	PersistentPostRunE: persistentPostRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.sercha-sync)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all state in memory")
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	searchService = s.Search
	documentService = s.Document
	connectionService = s.Connection
	categoryService = s.Category
	settingsService = s.Settings
	syncOrchestrator = s.Sync
	newScheduler = s.NewScheduler
	configWatcher = s.ConfigWatcher
	closeFn = s.Close
}

// Execute runs the root command. Services are closed even when the
// command fails, since cobra skips post-run hooks on error.
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := persistentPostRun(rootCmd, nil); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	services, err := bootstrap(BootstrapOptions{ConfigDir: configDir, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func persistentPostRun(_ *cobra.Command, _ []string) error {
	if closeFn == nil {
		return nil
	}
	err := closeFn()
	closeFn = nil
	return err
}

// errNotConfigured is returned when a command runs without its service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
