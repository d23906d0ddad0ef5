package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

var syncAll bool

// syncPollInterval is how often progress is printed during a single sync.
var syncPollInterval = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync [tenant] [kind] [id]",
	Short: "Synchronise documents from connections",
	Long: `Runs one sync of a connection: fetches new records since the stored
cursor, extracts them, writes documents to both indices, then advances
the cursor. With --all every configured connection is synchronised.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if syncAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "synchronise every connection")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errNotConfigured("sync")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if syncAll {
		cmd.Println("Synchronising all connections...")
		reports, err := syncOrchestrator.SyncAll(ctx)
		for i := range reports {
			printReport(cmd, &reports[i])
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		cmd.Printf("%d connection(s) synchronised.\n", len(reports))
		return nil
	}

	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	cmd.Printf("Synchronising %s/%s/%s...\n", args[0], kind, args[2])

	report, err := syncWithProgress(ctx, cmd, syncOrchestrator, args[0], kind, args[2])
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	tenantID string,
	kind domain.SourceKind,
	id string,
) (*domain.RunReport, error) {
	type result struct {
		report *domain.RunReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := syncOrch.Sync(ctx, tenantID, kind, id)
		done <- result{report, err}
	}()

	ticker := time.NewTicker(syncPollInterval)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case r := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return r.report, r.err
		case <-ticker.C:
			// Progress is best effort.
			status, err := syncOrch.Status(ctx, tenantID, kind, id)
			if err == nil && status != nil && status.RecordsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d records (%s)", status.RecordsProcessed, status.State)
				lastCount = status.RecordsProcessed
			}
		}
	}
}

func printReport(cmd *cobra.Command, r *domain.RunReport) {
	cmd.Printf("%s/%s/%s: %s\n", r.TenantID, r.Kind, r.ConnectionID, r.State)
	cmd.Printf("  Batches: %d  Records: %d  Documents: %d  Skipped: %d\n",
		r.Batches, r.Records, r.Documents, r.Skipped)

	if len(r.SkipReasons) > 0 {
		reasons := make([]string, 0, len(r.SkipReasons))
		for reason := range r.SkipReasons {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			cmd.Printf("    %s: %d\n", reason, r.SkipReasons[domain.SkipReason(reason)])
		}
	}
	if r.EndCursor != r.StartCursor {
		cmd.Printf("  Cursor: %q -> %q\n", r.StartCursor, r.EndCursor)
	}
	if d := r.Duration(); d > 0 {
		cmd.Printf("  Took %s\n", d.Round(time.Millisecond))
	}
}
