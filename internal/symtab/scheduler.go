package symtab

import (
	"context"
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	schedulerActiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "veyra_scheduler_active_tasks",
		Help: "Resolution tasks currently running on the symbol-table scheduler.",
	})
	schedulerQueuedTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "veyra_scheduler_queued_tasks",
		Help: "Resolution tasks spawned but not yet running on the symbol-table scheduler.",
	})
)

// Scheduler multiplexes checker tasks across a worker pool (§5). Tasks
// suspend only at the waiter primitives on Table; the scheduler itself
// just bounds concurrency and tracks whether the system has gone quiet.
type Scheduler struct {
	grp *errgroup.Group
	ctx context.Context

	mu     sync.Mutex
	active int
	queued int
}

// NewScheduler builds a scheduler bounded by GOMAXPROCS, whose context is
// cancelled on the first task error (errgroup.WithContext semantics).
func NewScheduler(ctx context.Context) *Scheduler {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	return &Scheduler{grp: grp, ctx: gctx}
}

// Spawn enqueues fn to run on the worker pool. Safe to call from within
// a running task (e.g. degeneric_header scheduling its body-rewrite
// task): the same *Scheduler is shared, so nested spawns are tracked by
// the same active/queued counters.
func (s *Scheduler) Spawn(name string, fn func(context.Context) error) {
	s.mu.Lock()
	s.queued++
	schedulerQueuedTasks.Set(float64(s.queued))
	s.mu.Unlock()

	s.grp.Go(func() error {
		s.mu.Lock()
		s.queued--
		s.active++
		schedulerQueuedTasks.Set(float64(s.queued))
		schedulerActiveTasks.Set(float64(s.active))
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			s.active--
			schedulerActiveTasks.Set(float64(s.active))
			s.mu.Unlock()
		}()
		return fn(s.ctx)
	})
}

// Wait blocks until every spawned task (including tasks spawned by other
// tasks) has completed, or the group's context is cancelled by the
// first task error.
func (s *Scheduler) Wait() error {
	return s.grp.Wait()
}

// Idle reports whether no task is currently running and the spawn queue
// is empty. Nothing in the repository calls it; still-pending waiters are
// not converted into UnresolvedSymbol diagnostics.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == 0 && s.queued == 0
}

// Context returns the scheduler's (possibly already-cancelled) context.
func (s *Scheduler) Context() context.Context { return s.ctx }
