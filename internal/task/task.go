// Package task has the bodies of every task kind and the runner that
// dispatches a submission to its body.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/marusama/semaphore/v2"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
	"github.com/slok/fmsched/internal/vfs"
)

// Emitter receives the progress events of a running task.
type Emitter interface {
	Emit(out model.TaskOut)
}

// EmitterFunc is a helper to use functions as Emitters.
type EmitterFunc func(out model.TaskOut)

func (e EmitterFunc) Emit(out model.TaskOut) { e(out) }

// Outcome maps the result of a body to the terminal event of the attempt.
func Outcome(err error) model.TaskOut {
	switch {
	case err == nil:
		return model.OutSucc{}
	case errors.Is(err, context.Canceled):
		return model.OutCancelled{}
	default:
		return model.OutFail{Reason: err.Error(), Retryable: model.IsRetryable(err)}
	}
}

// Terminal streams for blocking processes.
type Terminal struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunOpts are the per submission options of a run.
type RunOpts struct {
	// OnEntry is called with every source a file operation finished successfully.
	OnEntry func(src string)
}

// RunnerConfig is the configuration of the Runner.
type RunnerConfig struct {
	VFS     vfs.Provider
	Plugins plugin.Runtime
	Host    host.Host
	// Hider is the UI suspend semaphore held by blocking processes. It must
	// have a limit of one.
	Hider semaphore.Semaphore
	// Terminal is attached to blocking processes, when missing their output
	// is streamed as task logs like any other process.
	Terminal *Terminal
	// BizarreRetry is the number of retries of a transient failure.
	BizarreRetry int
	Logger       log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.VFS == nil {
		return fmt.Errorf("vfs is required")
	}

	if c.Plugins == nil {
		return fmt.Errorf("plugin runtime is required")
	}

	if c.Host == nil {
		return fmt.Errorf("host is required")
	}

	if c.Hider == nil {
		c.Hider = semaphore.New(1)
	}
	if c.Hider.GetLimit() != 1 {
		return fmt.Errorf("hider semaphore limit must be 1")
	}

	if c.BizarreRetry == 0 {
		c.BizarreRetry = conventions.DefaultBizarreRetry
	}
	if c.BizarreRetry < 0 {
		return fmt.Errorf("bizarre retry can't be negative")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "task.Runner"})

	return nil
}

// Runner runs task bodies.
type Runner struct {
	vfs     vfs.Provider
	plugins plugin.Runtime
	host    host.Host
	hider   semaphore.Semaphore
	term    *Terminal
	bizarre int
	logger  log.Logger
}

// NewRunner returns a new task Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		vfs:     cfg.VFS,
		plugins: cfg.Plugins,
		host:    cfg.Host,
		hider:   cfg.Hider,
		term:    cfg.Terminal,
		bizarre: cfg.BizarreRetry,
		logger:  cfg.Logger,
	}, nil
}

// Run runs the body of the task and returns the terminal event of the attempt.
// Progress is sent to the emitter while running. Panics of the body are
// returned as failures.
func (r *Runner) Run(ctx context.Context, in model.TaskIn, e Emitter, opts RunOpts) (out model.TaskOut) {
	logger := r.logger.WithCtxValues(ctx)

	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("Task body panicked: %v\n%s", p, debug.Stack())
			out = model.OutFail{Reason: fmt.Sprintf("task panicked: %v", p)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Outcome(err)
	}

	var err error
	switch in := in.(type) {
	case model.FileOpIn:
		err = r.fileOp(ctx, in, e, opts)
	case model.FetchIn:
		err = r.fetch(ctx, in)
	case model.PreloadIn:
		err = r.preload(ctx, in)
	case model.PluginEntryIn:
		err = r.pluginEntry(ctx, in)
	case model.ProcessIn:
		err = r.process(ctx, in, e)
	case model.SizeWalkIn:
		var n uint64
		n, err = r.sizeWalk(ctx, in, e)
		if err == nil {
			return model.OutDone{Bytes: n}
		}
	default:
		err = fmt.Errorf("unknown task payload %T: %w", in, model.ErrNotSupported)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debugf("Task attempt failed: %s", err)
	}

	return Outcome(err)
}

// retry runs fn retrying transient failures up to the bizarre retry budget.
func (r *Runner) retry(ctx context.Context, e Emitter, what string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !model.IsRetryable(err) || attempt > r.bizarre || ctx.Err() != nil {
			return err
		}
		e.Emit(model.OutLog{Line: fmt.Sprintf("Retrying %s (%d/%d): %s", what, attempt, r.bizarre, err)})
	}
}
