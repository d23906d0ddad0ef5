package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// DefaultTickInterval is how often the scheduler looks for due tasks.
const DefaultTickInterval = time.Minute

// historyKeep is the number of results kept per task.
const historyKeep = 100

// taskFunc runs one task and reports how many items it handled.
type taskFunc func(ctx context.Context) (int, error)

// Scheduler runs the tasks of a SchedulePlan on their intervals. Task
// state lives in a SchedulerStore so a restarted process picks up where
// the last one stopped. A task never overlaps with itself.
type Scheduler struct {
	plan     domain.SchedulePlan
	store    driven.SchedulerStore
	handlers map[string]taskFunc
	tick     time.Duration

	mu   sync.Mutex
	stop chan struct{}
	busy map[string]bool
	wg   sync.WaitGroup
}

// NewScheduler wires the built-in tasks to their services. A nil
// orchestrator or log store leaves the matching task without a handler,
// and the scheduler skips it.
func NewScheduler(
	plan domain.SchedulePlan,
	store driven.SchedulerStore,
	orch driving.SyncOrchestrator,
	logs driven.SearchLogStore,
) *Scheduler {
	s := &Scheduler{
		plan:     plan,
		store:    store,
		handlers: make(map[string]taskFunc),
		tick:     DefaultTickInterval,
		busy:     make(map[string]bool),
	}
	if orch != nil {
		s.handlers[domain.TaskIDDocumentSync] = func(ctx context.Context) (int, error) {
			reports, err := orch.SyncAll(ctx)
			written := 0
			for i := range reports {
				written += reports[i].Documents
			}
			return written, err
		}
	}
	if logs != nil {
		s.handlers[domain.TaskIDSearchLogPrune] = func(ctx context.Context) (int, error) {
			return logs.Prune(ctx, time.Now().Add(-domain.SearchLogRetention))
		}
	}
	return s
}

// SetTickInterval changes how often due tasks are checked.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// Start runs due tasks until Stop is called or ctx ends, and returns
// ctx.Err() in the latter case. A disabled plan runs nothing but still
// blocks. Calling Start on a running scheduler returns nil at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()
	defer s.finish(stop)

	if !s.plan.Enabled {
		logger.Info("scheduler: disabled, set scheduler.enabled to run tasks")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		}
	}

	if err := s.reconcile(ctx); err != nil {
		logger.Warn("scheduler: reconcile tasks: %v", err)
	}
	s.runDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	s.wg.Wait()
	return nil
}

func (s *Scheduler) finish(stop chan struct{}) {
	s.mu.Lock()
	if s.stop == stop {
		s.stop = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// reconcile saves every planned task and disables stored tasks the plan
// no longer names.
func (s *Scheduler) reconcile(ctx context.Context) error {
	stored, err := s.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]*domain.ScheduledTask, len(stored))
	for i := range stored {
		byID[stored[i].ID] = &stored[i]
	}

	now := time.Now()
	for _, spec := range s.plan.Tasks {
		if s.handlers[spec.ID] == nil {
			logger.Warn("scheduler: no handler for task %s", spec.ID)
			continue
		}
		task, ok := byID[spec.ID]
		if !ok {
			task = &domain.ScheduledTask{ID: spec.ID}
		}
		delete(byID, spec.ID)
		task.Apply(spec, now)
		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	for _, task := range byID {
		if !task.Enabled {
			continue
		}
		task.Enabled = false
		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: list tasks: %v", err)
		return
	}
	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if task.Due(now) && s.handlers[task.ID] != nil {
			s.launch(ctx, task)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, task domain.ScheduledTask) {
	s.mu.Lock()
	if s.stop == nil || s.busy[task.ID] {
		s.mu.Unlock()
		return
	}
	s.busy[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.busy, task.ID)
			s.mu.Unlock()
		}()
		s.execute(ctx, &task)
	}()
}

func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) {
	result := &domain.TaskResult{TaskID: task.ID, StartedAt: time.Now()}
	n, err := s.handlers[task.ID](ctx)
	result.EndedAt = time.Now()
	result.ItemsProcessed = n
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		logger.Warn("scheduler: task %s failed: %v", task.ID, err)
	} else {
		logger.Debug("scheduler: task %s handled %d items in %s", task.ID, n, result.Duration())
	}
	task.Record(result)

	// Bookkeeping outlives cancellation of the loop.
	bg := context.WithoutCancel(ctx)
	if err := s.store.SaveTask(bg, task); err != nil {
		logger.Warn("scheduler: save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(bg, result); err != nil {
		logger.Warn("scheduler: record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(bg, historyKeep); err != nil {
		logger.Warn("scheduler: prune history: %v", err)
	}
}
