package run

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/printer"
	"github.com/slok/fmsched/internal/scheduler"
)

// Scheduler is the part of the scheduler the service uses.
type Scheduler interface {
	SubmitWithOptions(in model.TaskIn, prio model.Priority, opts scheduler.SubmitOptions) (model.TaskID, error)
	Cancel(tid model.TaskID) bool
	WatchSummary(ctx context.Context, interval time.Duration, fn func(model.Summary))
}

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Scheduler Scheduler
	Printer   printer.Printer
	// ProgressOut receives the progress bar, no progress is rendered when missing.
	ProgressOut      io.Writer
	ProgressInterval time.Duration
	Logger           log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Scheduler == nil {
		return fmt.Errorf("scheduler is required")
	}
	if c.Printer == nil {
		return fmt.Errorf("printer is required")
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = scheduler.DefaultWatchInterval
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service submits a set of tasks and waits for all of them to finish.
type Service struct {
	sched            Scheduler
	printer          printer.Printer
	progressOut      io.Writer
	progressInterval time.Duration
	logger           log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		sched:            cfg.Scheduler,
		printer:          cfg.Printer,
		progressOut:      cfg.ProgressOut,
		progressInterval: cfg.ProgressInterval,
		logger:           cfg.Logger,
	}, nil
}

// Item is a task to submit.
type Item struct {
	In       model.TaskIn
	Priority model.Priority
}

// Request contains the tasks of a run.
type Request struct {
	Items []Item
	// Detail prints every task with its logs instead of the task table.
	Detail bool
	// Quiet doesn't print the results.
	Quiet bool
	// OnEntry is called for every source a file operation finished.
	OnEntry func(src string)
}

// Result contains the final state of the tasks in submission order.
type Result struct {
	Tasks []model.TaskSnap
}

// Run submits the tasks and waits for them. When the context is cancelled the
// unfinished tasks are cancelled and waited.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("no tasks to run: %w", model.ErrNotValid)
	}

	done := make(chan model.TaskSnap, len(req.Items))
	opts := scheduler.SubmitOptions{
		OnDone:  func(snap model.TaskSnap) { done <- snap },
		OnEntry: req.OnEntry,
	}

	ids := make([]model.TaskID, 0, len(req.Items))
	var submitErr error
	for _, it := range req.Items {
		tid, err := s.sched.SubmitWithOptions(it.In, it.Priority, opts)
		if err != nil {
			submitErr = fmt.Errorf("could not submit %q: %w", it.In.Name(), err)
			break
		}
		ids = append(ids, tid)
		s.logger.Debugf("Task %s submitted: %s", tid, it.In.Name())
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var bar *progressBar
	if s.progressOut != nil && submitErr == nil {
		bar = newProgressBar(s.progressOut, len(ids))
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sched.WatchSummary(watchCtx, s.progressInterval, bar.update)
		}()
	}

	results := make(map[model.TaskID]model.TaskSnap, len(ids))
	cancelled := false
	cancel := func() {
		cancelled = true
		n := 0
		for _, tid := range ids {
			if _, ok := results[tid]; !ok && s.sched.Cancel(tid) {
				n++
			}
		}
		s.logger.Warningf("%d tasks cancelled", n)
	}
	if submitErr != nil {
		cancel()
	}

	ctxDone := ctx.Done()
	for len(results) < len(ids) {
		select {
		case snap := <-done:
			results[snap.ID] = snap
		case <-ctxDone:
			ctxDone = nil
			if !cancelled {
				cancel()
			}
		}
	}

	stopWatch()
	wg.Wait()
	if bar != nil {
		bar.finish()
	}

	snaps := make([]model.TaskSnap, 0, len(ids))
	failed := 0
	for _, tid := range ids {
		snap := results[tid]
		snaps = append(snaps, snap)
		if !snap.Prog.Succeeded() {
			failed++
		}
	}
	res := &Result{Tasks: snaps}

	if submitErr != nil {
		return res, submitErr
	}

	if !req.Quiet {
		if err := s.print(snaps, req.Detail); err != nil {
			return res, fmt.Errorf("could not print results: %w", err)
		}
	}

	if cancelled {
		return res, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	}
	if failed > 0 {
		return res, fmt.Errorf("%d of %d tasks did not succeed", failed, len(snaps))
	}

	return res, nil
}

func (s *Service) print(snaps []model.TaskSnap, detail bool) error {
	if !detail {
		return s.printer.PrintTasks(snaps)
	}

	for _, snap := range snaps {
		if err := s.printer.PrintTask(snap); err != nil {
			return err
		}
	}
	return nil
}
