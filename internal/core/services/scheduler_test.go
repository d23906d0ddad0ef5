package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

type fakeOrchestrator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeOrchestrator) Sync(context.Context, string, domain.SourceKind, string) (*domain.RunReport, error) {
	return &domain.RunReport{}, nil
}

func (f *fakeOrchestrator) SyncAll(context.Context) ([]domain.RunReport, error) {
	f.calls.Add(1)
	return []domain.RunReport{{Documents: 3}, {Documents: 4}}, f.err
}

func (f *fakeOrchestrator) Status(context.Context, string, domain.SourceKind, string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{}, nil
}

func startScheduler(t *testing.T, s *Scheduler) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	}
}

func TestScheduler_RunsDueTasksOnStart(t *testing.T) {
	store := memory.NewSchedulerStore()
	logs := memory.NewSearchLogStore()
	ctx := context.Background()
	old := time.Now().Add(-2 * domain.SearchLogRetention)
	require.NoError(t, logs.Append(ctx, &domain.SearchLog{ID: "old", TenantID: "acme", CreatedAt: old}))
	require.NoError(t, logs.Append(ctx, &domain.SearchLog{ID: "new", TenantID: "acme", CreatedAt: time.Now()}))

	orch := &fakeOrchestrator{}
	s := NewScheduler(domain.NewSchedulePlan(true, time.Hour, time.Hour), store, orch, logs)
	stop := startScheduler(t, s)

	require.Eventually(t, func() bool {
		sync, _ := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 1)
		prune, _ := store.GetTaskHistory(ctx, domain.TaskIDSearchLogPrune, 1)
		return len(sync) == 1 && len(prune) == 1
	}, 5*time.Second, 10*time.Millisecond)
	stop()

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 1)
	require.NoError(t, err)
	assert.True(t, history[0].Success)
	assert.Equal(t, 7, history[0].ItemsProcessed)
	assert.Equal(t, int32(1), orch.calls.Load())

	history, err = store.GetTaskHistory(ctx, domain.TaskIDSearchLogPrune, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, history[0].ItemsProcessed)

	remaining, err := logs.List(ctx, "acme", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].ID)

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.True(t, task.NextRun.After(task.LastRun))
	assert.False(t, task.LastSuccess.IsZero())
}

func TestScheduler_RecordsFailures(t *testing.T) {
	store := memory.NewSchedulerStore()
	plan := domain.NewSchedulePlan(true, time.Hour, 0)
	orch := &fakeOrchestrator{err: errors.New("sync sql:acme:handbook: boom")}

	s := NewScheduler(plan, store, orch, nil)
	stop := startScheduler(t, s)
	ctx := context.Background()

	require.Eventually(t, func() bool {
		h, _ := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 1)
		return len(h) == 1
	}, 5*time.Second, 10*time.Millisecond)
	stop()

	h, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 1)
	require.NoError(t, err)
	assert.False(t, h[0].Success)
	assert.Contains(t, h[0].Error, "boom")

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Contains(t, task.LastError, "boom")

	prune, err := store.GetTask(ctx, domain.TaskIDSearchLogPrune)
	require.NoError(t, err)
	assert.Nil(t, prune)
}

func TestScheduler_ReschedulesOnTick(t *testing.T) {
	store := memory.NewSchedulerStore()
	plan := domain.NewSchedulePlan(true, 20*time.Millisecond, 0)
	orch := &fakeOrchestrator{}

	s := NewScheduler(plan, store, orch, nil)
	s.SetTickInterval(10 * time.Millisecond)
	stop := startScheduler(t, s)

	require.Eventually(t, func() bool {
		return orch.calls.Load() >= 3
	}, 5*time.Second, 10*time.Millisecond)
	stop()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(domain.NewSchedulePlan(true, time.Hour, time.Hour), memory.NewSchedulerStore(), nil, nil)
	assert.NoError(t, s.Stop())
}

func TestScheduler_DisabledPlanIdles(t *testing.T) {
	store := memory.NewSchedulerStore()
	orch := &fakeOrchestrator{}
	s := NewScheduler(domain.NewSchedulePlan(false, time.Hour, time.Hour), store, orch, nil)
	s.SetTickInterval(5 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, orch.calls.Load())
	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestScheduler_DisablesDroppedTasks(t *testing.T) {
	store := memory.NewSchedulerStore()
	ctx := context.Background()
	future := time.Now().Add(time.Hour)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDSearchLogPrune, Name: "Search Log Prune", Interval: time.Hour, Enabled: true, NextRun: future,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDocumentSync, Name: "Document Sync", Interval: time.Hour, Enabled: true, NextRun: future,
	}))

	logs := memory.NewSearchLogStore()
	s := NewScheduler(domain.NewSchedulePlan(true, 2*time.Hour, 0), store, &fakeOrchestrator{}, logs)
	require.NoError(t, s.reconcile(ctx))

	prune, err := store.GetTask(ctx, domain.TaskIDSearchLogPrune)
	require.NoError(t, err)
	assert.False(t, prune.Enabled)

	syncTask, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.True(t, syncTask.Enabled)
	assert.Equal(t, 2*time.Hour, syncTask.Interval)
	assert.True(t, syncTask.NextRun.After(future), "interval change reschedules")
}
