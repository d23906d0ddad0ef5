package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulePlan(t *testing.T) {
	tests := []struct {
		name    string
		sync    time.Duration
		prune   time.Duration
		wantIDs []string
	}{
		{name: "both", sync: time.Minute, prune: time.Hour, wantIDs: []string{TaskIDDocumentSync, TaskIDSearchLogPrune}},
		{name: "sync only", sync: time.Minute, wantIDs: []string{TaskIDDocumentSync}},
		{name: "prune only", prune: time.Hour, wantIDs: []string{TaskIDSearchLogPrune}},
		{name: "none", sync: -time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewSchedulePlan(true, tt.sync, tt.prune)
			assert.True(t, plan.Enabled)
			var ids []string
			for _, task := range plan.Tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSchedulePlan_Task(t *testing.T) {
	plan := NewSchedulePlan(false, 5*time.Minute, 0)

	task, ok := plan.Task(TaskIDDocumentSync)
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, task.Interval)
	assert.Equal(t, "Document Sync", task.Name)

	_, ok = plan.Task(TaskIDSearchLogPrune)
	assert.False(t, ok)
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{name: "never run", task: ScheduledTask{Enabled: true}, want: true},
		{name: "past", task: ScheduledTask{Enabled: true, NextRun: now.Add(-time.Second)}, want: true},
		{name: "exactly now", task: ScheduledTask{Enabled: true, NextRun: now}, want: true},
		{name: "future", task: ScheduledTask{Enabled: true, NextRun: now.Add(time.Second)}},
		{name: "disabled", task: ScheduledTask{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Apply(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	spec := TaskSpec{ID: TaskIDDocumentSync, Name: "Document Sync", Interval: time.Hour}

	fresh := &ScheduledTask{ID: spec.ID}
	fresh.Apply(spec, now)
	assert.True(t, fresh.Enabled)
	assert.Equal(t, time.Hour, fresh.Interval)
	assert.True(t, fresh.NextRun.IsZero(), "new task runs immediately")

	next := now.Add(10 * time.Minute)
	same := &ScheduledTask{ID: spec.ID, Interval: time.Hour, NextRun: next}
	same.Apply(spec, now)
	assert.Equal(t, next, same.NextRun)

	changed := &ScheduledTask{ID: spec.ID, Interval: 15 * time.Minute, NextRun: next}
	changed.Apply(spec, now)
	assert.Equal(t, now.Add(time.Hour), changed.NextRun)
}

func TestScheduledTask_Record(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	task := &ScheduledTask{Interval: time.Hour, LastError: "old"}

	task.Record(&TaskResult{StartedAt: start, EndedAt: end, Success: true})
	assert.Equal(t, start, task.LastRun)
	assert.Equal(t, end.Add(time.Hour), task.NextRun)
	assert.Equal(t, end, task.LastSuccess)
	assert.Empty(t, task.LastError)

	failed := &TaskResult{StartedAt: end, EndedAt: end.Add(time.Second), Error: "boom"}
	task.Record(failed)
	assert.Equal(t, "boom", task.LastError)
	assert.Equal(t, end, task.LastSuccess)
	assert.Equal(t, time.Second, failed.Duration())
}
