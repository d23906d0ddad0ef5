package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in config.toml.

Keys are dotted, e.g. sync.batch_size or secondary.azure.endpoint.
Run 'sercha-sync settings keys' to list them.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	dataDir := settings.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}
	cmd.Printf("Data dir: %s\n\n", dataDir)

	cmd.Println("[Sync]")
	cmd.Printf("  Workers: %d\n", settings.Sync.Workers)
	cmd.Printf("  Batch size: %d\n", settings.Sync.BatchSize)
	cmd.Printf("  Fetch timeout: %s\n", settings.Sync.FetchTimeout)
	cmd.Println()

	cmd.Println("[Writer]")
	cmd.Printf("  Timeout: %s\n", settings.Writer.Timeout)
	cmd.Printf("  Max attempts: %d\n", settings.Writer.MaxAttempts)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Println()

	cmd.Println("[Secondary Index]")
	backend := settings.Secondary.Backend
	if backend == "" {
		backend = domain.SecondaryNone
	}
	cmd.Printf("  Backend: %s\n", backend)
	if backend == domain.SecondaryAzure {
		cmd.Printf("  Endpoint: %s\n", settings.Secondary.Azure.Endpoint)
		cmd.Printf("  API version: %s\n", settings.Secondary.Azure.APIVersion)
		cmd.Printf("  API key: %s\n", maskAPIKey(settings.Secondary.Azure.APIKey))
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider)
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API key: %s\n", maskAPIKey(settings.Embedding.APIKey))
	}
	cmd.Println()

	if settings.Extractor.RemoteURL != "" {
		cmd.Println("[Extractor]")
		cmd.Printf("  Remote URL: %s\n", settings.Extractor.RemoteURL)
		cmd.Println()
	}

	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %t\n", settings.Scheduler.Enabled)
	cmd.Printf("  Interval: %s\n", settings.Scheduler.Interval)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
