package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SchedulerStore persists task state and run history so the schedule
// survives restarts.
type SchedulerStore interface {
	// GetTask returns nil and no error for an unknown task.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every stored task ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask inserts or replaces a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask removes a task together with its history.
	DeleteTask(ctx context.Context, taskID string) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit results, newest first. A
	// non-positive limit returns all of them.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep results of each task.
	PruneHistory(ctx context.Context, keep int) error
}
