package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*schedulerStore)(nil)

type schedulerStore struct {
	db *sql.DB
}

const taskColumns = `id, name, interval_ns, enabled, last_run, next_run, last_success, last_error`

// GetTask returns nil and no error when the task has never been saved.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	tasks, err := collect(ctx, s.db, func(row scanner) (domain.ScheduledTask, error) {
		task, err := scanTask(row)
		if err != nil {
			return domain.ScheduledTask{}, err
		}
		return *task, nil
	}, `SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("%w: task id is required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_ns = excluded.interval_ns,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error`,
		task.ID, task.Name, int64(task.Interval), boolToInt(task.Enabled),
		unixNanos(task.LastRun), unixNanos(task.NextRun), unixNanos(task.LastSuccess),
		task.LastError)
	if err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes the task and its history.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_results WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("delete task %s history: %w", taskID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, taskID); err != nil {
			return fmt.Errorf("delete task %s: %w", taskID, err)
		}
		return nil
	})
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil || result.TaskID == "" {
		return fmt.Errorf("%w: task id is required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, started_at, ended_at, success, error, items)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.TaskID, result.StartedAt.UnixNano(), result.EndedAt.UnixNano(),
		boolToInt(result.Success), result.Error, result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("record result for %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns the newest results first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}
	results, err := collect(ctx, s.db, scanResult, `
		SELECT task_id, started_at, ended_at, success, error, items
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, seq DESC
		LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("task history %s: %w", taskID, err)
	}
	return results, nil
}

// PruneHistory keeps the newest keep results of every task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		WITH ranked AS (
			SELECT seq, ROW_NUMBER() OVER (
				PARTITION BY task_id ORDER BY started_at DESC, seq DESC
			) AS rank
			FROM task_results
		)
		DELETE FROM task_results
		WHERE seq IN (SELECT seq FROM ranked WHERE rank > ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune task history: %w", err)
	}
	return nil
}

func scanTask(row scanner) (*domain.ScheduledTask, error) {
	var (
		task                       domain.ScheduledTask
		interval                   int64
		enabled                    int
		lastRun, nextRun, lastSucc sql.NullInt64
	)
	err := row.Scan(&task.ID, &task.Name, &interval, &enabled,
		&lastRun, &nextRun, &lastSucc, &task.LastError)
	if err != nil {
		return nil, err
	}
	task.Interval = time.Duration(interval)
	task.Enabled = enabled == 1
	task.LastRun = fromUnixNanos(lastRun)
	task.NextRun = fromUnixNanos(nextRun)
	task.LastSuccess = fromUnixNanos(lastSucc)
	return &task, nil
}

func scanResult(row scanner) (domain.TaskResult, error) {
	var (
		r              domain.TaskResult
		started, ended int64
		success        int
	)
	if err := row.Scan(&r.TaskID, &started, &ended, &success, &r.Error, &r.ItemsProcessed); err != nil {
		return r, err
	}
	r.StartedAt = time.Unix(0, started).UTC()
	r.EndedAt = time.Unix(0, ended).UTC()
	r.Success = success != 0
	return r, nil
}

// unixNanos stores the zero time as NULL.
func unixNanos(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

func fromUnixNanos(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}
