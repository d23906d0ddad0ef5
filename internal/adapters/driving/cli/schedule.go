package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run periodic syncs in the foreground",
	Long: `Runs the scheduler until interrupted. Every connection is synced on
the configured interval and old search logs are pruned.

When config.toml changes the scheduler is restarted with the new
intervals. Other settings take effect on the next start of the process.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if newScheduler == nil {
		return errNotConfigured("scheduler")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan struct{}, 1)
	if configWatcher != nil {
		go func() {
			err := configWatcher.Watch(ctx, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watch stopped: %v", err)
			}
		}()
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	for {
		restart, err := runSchedulerOnce(ctx, reload)
		if !restart {
			return err
		}
		logger.Info("configuration changed, restarting scheduler")
	}
}

// runSchedulerOnce runs one scheduler until ctx ends or a reload arrives.
// It reports whether the caller should start a fresh scheduler.
func runSchedulerOnce(ctx context.Context, reload <-chan struct{}) (bool, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := newScheduler()
	done := make(chan error, 1)
	go func() {
		done <- sched.Start(runCtx)
	}()

	select {
	case <-ctx.Done():
		<-done
		return false, nil
	case err := <-done:
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			err = nil
		}
		return false, err
	case <-reload:
		cancel()
		<-done
		return true, nil
	}
}
