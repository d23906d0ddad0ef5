package domain

import "time"

// Built-in task IDs.
const (
	TaskIDDocumentSync   = "document-sync"
	TaskIDSearchLogPrune = "search-log-prune"
)

// SearchLogRetention is how long the prune task keeps search log entries.
const SearchLogRetention = 90 * 24 * time.Hour

// DefaultPruneInterval is how often search logs are pruned.
const DefaultPruneInterval = 24 * time.Hour

// TaskSpec declares a task the scheduler should keep running.
type TaskSpec struct {
	ID       string
	Name     string
	Interval time.Duration
}

// Active reports whether the task has a positive interval.
func (t TaskSpec) Active() bool {
	return t.Interval > 0
}

// SchedulePlan is what a scheduler runs. A disabled plan runs nothing.
type SchedulePlan struct {
	Enabled bool
	Tasks   []TaskSpec
}

// Task looks up a task by ID.
func (p SchedulePlan) Task(id string) (TaskSpec, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskSpec{}, false
}

// NewSchedulePlan builds the plan for the built-in tasks. A non-positive
// interval leaves that task out.
func NewSchedulePlan(enabled bool, syncEvery, pruneEvery time.Duration) SchedulePlan {
	plan := SchedulePlan{Enabled: enabled}
	for _, t := range []TaskSpec{
		{ID: TaskIDDocumentSync, Name: "Document Sync", Interval: syncEvery},
		{ID: TaskIDSearchLogPrune, Name: "Search Log Prune", Interval: pruneEvery},
	} {
		if t.Active() {
			plan.Tasks = append(plan.Tasks, t)
		}
	}
	return plan
}

// ScheduledTask is the persisted state of a recurring task.
type ScheduledTask struct {
	ID          string
	Name        string
	Interval    time.Duration
	Enabled     bool
	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// Due reports whether the task should run at now. A task that never ran
// is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Apply brings the stored task in line with spec. Changing the interval
// moves the next run to now plus the new interval.
func (t *ScheduledTask) Apply(spec TaskSpec, now time.Time) {
	t.Name = spec.Name
	t.Enabled = true
	if t.Interval != spec.Interval {
		if t.Interval != 0 {
			t.NextRun = now.Add(spec.Interval)
		}
		t.Interval = spec.Interval
	}
}

// Record updates the task after a run and schedules the next one.
func (t *ScheduledTask) Record(r *TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
	} else {
		t.LastError = r.Error
	}
}

// TaskResult is one execution of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts documents written or log entries pruned.
	ItemsProcessed int
}

// Duration is how long the run took.
func (r *TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
