// Package scheduler runs file manager tasks in the background on bounded
// priority pools and keeps the live registry of their progress.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/id"
	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/task"
)

// Runner runs a single attempt of a task and returns its terminal event.
type Runner interface {
	Run(ctx context.Context, in model.TaskIn, e task.Emitter, opts task.RunOpts) model.TaskOut
}

// RunnerFunc is a helper to use functions as Runners.
type RunnerFunc func(ctx context.Context, in model.TaskIn, e task.Emitter, opts task.RunOpts) model.TaskOut

func (f RunnerFunc) Run(ctx context.Context, in model.TaskIn, e task.Emitter, opts task.RunOpts) model.TaskOut {
	return f(ctx, in, e, opts)
}

// SubmitOptions are optional per submission hooks.
type SubmitOptions struct {
	// OnDone is called once with the final snapshot when the task reaches a terminal state.
	// It is called outside of the scheduler so it can take its time.
	OnDone func(snap model.TaskSnap)
	// OnEntry is called by file operations for every source they finished successfully.
	OnEntry func(src string)
}

// Config is the configuration of the Scheduler.
type Config struct {
	Runner       Runner
	MicroWorkers int
	MacroWorkers int
	// BizarreRetry is how many times a task that failed with a transient error is requeued.
	BizarreRetry int
	// IDs is the task ID source, a new one is created when missing.
	IDs    *id.Source
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}

	if c.MicroWorkers == 0 {
		c.MicroWorkers = conventions.DefaultMicroWorkers
	}
	if c.MicroWorkers < conventions.MinMicroWorkers {
		return fmt.Errorf("micro workers must be at least %d", conventions.MinMicroWorkers)
	}

	if c.MacroWorkers == 0 {
		c.MacroWorkers = conventions.DefaultMacroWorkers
	}
	if c.MacroWorkers < conventions.MinMacroWorkers {
		return fmt.Errorf("macro workers must be at least %d", conventions.MinMacroWorkers)
	}

	if c.BizarreRetry == 0 {
		c.BizarreRetry = conventions.DefaultBizarreRetry
	}
	if c.BizarreRetry < conventions.MinBizarreRetry || c.BizarreRetry > 255 {
		return fmt.Errorf("bizarre retry must be between %d and 255", conventions.MinBizarreRetry)
	}

	if c.IDs == nil {
		c.IDs = id.NewSource()
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "scheduler.Scheduler"})

	return nil
}

type stage int

const (
	stageQueued stage = iota
	stageRunning
	stageDone
)

// control is the execution side state of a live task.
type control struct {
	in              model.TaskIn
	prio            model.Priority
	pool            *Pool
	opts            SubmitOptions
	stage           stage
	cancel          context.CancelFunc
	cancelRequested bool
}

// Scheduler accepts task submissions, runs them on the micro and macro pools
// and reduces their progress events into a registry of records.
//
// Records are owned by a single reducer goroutine started with Run, readers get
// immutable snapshots.
type Scheduler struct {
	runner       Runner
	ids          *id.Source
	bizarreRetry int
	logger       log.Logger

	pools map[model.PoolName]*Pool
	inbox *inbox

	// Execution side.
	mu        sync.Mutex
	controls  map[model.TaskID]*control
	stopped   bool
	started   bool
	runCtx    context.Context
	runCancel context.CancelFunc

	// Reducer side.
	reg     *registry
	view    atomic.Pointer[view]
	changes chan struct{}
	closed  chan struct{}
}

// New returns a new scheduler, the pools start accepting work right away but
// the progress is not reduced until Run is called.
func New(cfg Config) (*Scheduler, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:       cfg.Runner,
		ids:          cfg.IDs,
		bizarreRetry: cfg.BizarreRetry,
		logger:       cfg.Logger,
		inbox:        newInbox(),
		controls:     map[model.TaskID]*control{},
		runCtx:       runCtx,
		runCancel:    runCancel,
		reg:          newRegistry(),
		changes:      make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}
	s.view.Store(&view{summary: model.Summarize(nil)})

	micro, err := NewPool(model.PoolMicro, cfg.MicroWorkers, s.execute)
	if err != nil {
		return nil, err
	}
	macro, err := NewPool(model.PoolMacro, cfg.MacroWorkers, s.execute)
	if err != nil {
		return nil, err
	}
	s.pools = map[model.PoolName]*Pool{
		model.PoolMicro: micro,
		model.PoolMacro: macro,
	}

	return s, nil
}

// Run reduces the task progress until the context is cancelled, then shuts the
// scheduler down: running tasks are cancelled and waited, queued tasks are
// cancelled without running and later submissions are rejected.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Debugf("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.logger.Debugf("Scheduler stopped")
			return nil
		case <-s.inbox.notify:
			s.reduce(s.inbox.drain())
		}
	}
}

// Submit schedules a task, see SubmitWithOptions.
func (s *Scheduler) Submit(in model.TaskIn, prio model.Priority) (model.TaskID, error) {
	return s.SubmitWithOptions(in, prio, SubmitOptions{})
}

// SubmitWithOptions schedules a task and returns its ID, it never blocks.
// Invalid payloads are accepted and fail when they run so the failure is visible
// in the registry. It only fails once the scheduler has been shut down.
func (s *Scheduler) SubmitWithOptions(in model.TaskIn, prio model.Priority, opts SubmitOptions) (model.TaskID, error) {
	if in == nil {
		return "", fmt.Errorf("missing task payload: %w", model.ErrNotValid)
	}
	if !prio.Valid() {
		prio = model.PriorityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.logger.Warningf("Task %q rejected, scheduler is stopped", in.Name())
		return "", model.ErrPoolStopped
	}

	tid := s.ids.Next()
	pool := s.pools[model.PoolFor(in)]
	s.controls[tid] = &control{in: in, prio: prio, pool: pool, opts: opts, stage: stageQueued}

	// The record must exist before any event of the task reaches the reducer.
	s.inbox.post(msgCreate{
		rec: model.TaskRecord{
			ID:       tid,
			Kind:     in.Kind(),
			Name:     in.Name(),
			Priority: prio,
			Prog:     model.NewTaskProg(in.Kind()),
		},
		onDone: opts.OnDone,
	})

	err := pool.Push(tid, prio)
	if err != nil {
		delete(s.controls, tid)
		s.post(tid, model.OutFail{Reason: err.Error()})
		return "", err
	}

	s.logger.WithValues(log.Kv{"task-id": tid, "kind": in.Kind(), "priority": prio}).Debugf("Task submitted")

	return tid, nil
}

// Cancel requests the cancellation of a task and returns true if the request
// was accepted. Queued tasks are removed and never run, running tasks get their
// context cancelled and a task waiting for a retry is not run again.
// Cancelling a finished, unknown or already cancelled task returns false.
func (s *Scheduler) Cancel(tid model.TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controls[tid]
	if !ok || c.cancelRequested {
		return false
	}

	if c.stage == stageQueued && c.pool.Remove(tid) {
		delete(s.controls, tid)
		s.post(tid, model.OutCancelled{})
		return true
	}

	// Popped by a worker that didn't start it yet, running, or between attempts.
	c.cancelRequested = true
	if c.cancel != nil {
		c.cancel()
	}
	return true
}

// Flush waits until every message posted before the call has been reduced.
func (s *Scheduler) Flush(ctx context.Context) error {
	done := make(chan struct{})
	s.inbox.post(msgFlush{done: done})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dismiss removes a finished task from the registry, returns false if the task
// is unknown or still live.
func (s *Scheduler) Dismiss(ctx context.Context, tid model.TaskID) (bool, error) {
	res := make(chan bool, 1)
	s.inbox.post(msgDismiss{id: tid, res: res})

	select {
	case ok := <-res:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// ClearCompleted removes all the finished tasks from the registry and returns
// how many were removed.
func (s *Scheduler) ClearCompleted(ctx context.Context) (int, error) {
	res := make(chan int, 1)
	s.inbox.post(msgClear{res: res})

	select {
	case n := <-res:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Stats returns the occupied slots and queued tasks of a pool.
func (s *Scheduler) Stats(pool model.PoolName) (running, queued int) {
	p, ok := s.pools[pool]
	if !ok {
		return 0, 0
	}
	return p.Running(), p.Queued()
}

func (s *Scheduler) post(tid model.TaskID, out model.TaskOut) {
	s.inbox.post(msgEvent{id: tid, out: out})
}

func (s *Scheduler) execute(tid model.TaskID) {
	s.mu.Lock()
	c, ok := s.controls[tid]
	if !ok || c.stage != stageQueued {
		s.mu.Unlock()
		return
	}
	if c.cancelRequested {
		delete(s.controls, tid)
		s.mu.Unlock()
		s.post(tid, model.OutCancelled{})
		return
	}
	ctx, cancel := context.WithCancel(s.runCtx)
	c.stage = stageRunning
	c.cancel = cancel
	in, opts := c.in, c.opts
	s.mu.Unlock()
	defer cancel()

	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"task-id": tid, "kind": in.Kind()})
	logger := s.logger.WithCtxValues(ctx)

	s.post(tid, model.OutStarted{})
	logger.Debugf("Task started")

	// Bodies only report progress, the terminal event is the runner result.
	e := task.EmitterFunc(func(out model.TaskOut) {
		if out == nil || out.Terminal() {
			return
		}
		s.post(tid, out)
	})
	out := s.runner.Run(ctx, in, e, task.RunOpts{OnEntry: opts.OnEntry})
	if out == nil || !out.Terminal() {
		out = model.OutFail{Reason: "task finished without a result"}
	}

	s.mu.Lock()
	c.stage = stageDone
	c.cancel = nil
	s.mu.Unlock()

	s.post(tid, out)
	logger.Debugf("Task attempt finished: %T", out)
}

// requeue schedules a new attempt of a task. It returns false if the task must
// not run again, cancelled is true when that's because it was cancelled.
func (s *Scheduler) requeue(tid model.TaskID) (requeued, cancelled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controls[tid]
	if !ok || c.stage != stageDone {
		return false, false
	}
	if c.cancelRequested {
		return false, true
	}
	if s.stopped {
		return false, false
	}

	c.stage = stageQueued
	if err := c.pool.Push(tid, c.prio); err != nil {
		c.stage = stageDone
		return false, false
	}
	return true, false
}

// forget drops the execution state of a finished task.
func (s *Scheduler) forget(tid model.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.controls, tid)
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	s.stopped = true
	for _, c := range s.controls {
		if c.stage == stageRunning && !c.cancelRequested {
			c.cancelRequested = true
			c.cancel()
		}
	}
	s.mu.Unlock()
	s.runCancel()

	for _, name := range []model.PoolName{model.PoolMicro, model.PoolMacro} {
		queued := s.pools[name].Shutdown()
		for _, tid := range queued {
			s.forget(tid)
			s.post(tid, model.OutCancelled{})
		}
		if len(queued) > 0 {
			s.logger.Infof("%d queued %s tasks cancelled on shutdown", len(queued), name)
		}
	}

	// Every body has returned, reduce their last events.
	s.reduce(s.inbox.drain())
	close(s.closed)
}
