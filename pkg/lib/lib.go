package lib

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/plugin"
	"github.com/slok/fmsched/internal/plugin/fake"
	"github.com/slok/fmsched/internal/plugin/script"
	"github.com/slok/fmsched/internal/scheduler"
	"github.com/slok/fmsched/internal/task"
	"github.com/slok/fmsched/internal/vfs/local"
)

// PluginRuntimeType selects how plugins are run.
type PluginRuntimeType string

const (
	// PluginRuntimeScript runs plugins as executables of the plugins directory.
	PluginRuntimeScript PluginRuntimeType = "script"
	// PluginRuntimeFake accepts every plugin call without running anything.
	PluginRuntimeFake PluginRuntimeType = "fake"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults.
type Config struct {
	// MicroWorkers is the size of the pool of short tasks (plugins, size calculations).
	// Default: 10, minimum 3.
	MicroWorkers int
	// MacroWorkers is the size of the pool of heavy tasks (file operations, processes).
	// Default: 25, minimum 5.
	MacroWorkers int
	// BizarreRetry is how many times transient failures are retried.
	// Default: 3, minimum 3.
	BizarreRetry int

	// TrashDir is the freedesktop trash used by non permanent removals.
	// Default: $XDG_DATA_HOME/Trash.
	TrashDir string
	// PluginsDir is the directory of the plugin executables.
	// Default: $XDG_CONFIG_HOME/fmsched/plugins.
	PluginsDir string
	// PluginRuntime selects how plugins are run.
	// Default: [PluginRuntimeScript].
	PluginRuntime PluginRuntimeType

	// FS is the file system of file operations and size calculations.
	// Default: the OS file system.
	FS afero.Fs

	// Stdin, Stdout and Stderr are attached to blocking processes while the UI
	// is suspended. When missing blocking processes are run like any other.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.TrashDir == "" {
		c.TrashDir = conventions.DefaultTrashDir()
	}

	if c.PluginsDir == "" {
		c.PluginsDir = conventions.DefaultPluginsDir()
	}

	switch c.PluginRuntime {
	case "":
		c.PluginRuntime = PluginRuntimeScript
	case PluginRuntimeScript, PluginRuntimeFake:
	default:
		return fmt.Errorf("unsupported plugin runtime %q: %w", c.PluginRuntime, ErrNotValid)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the SDK entry point, it schedules and tracks background tasks.
//
// Create a Client with [New], start it with [Client.Start] and release it with
// [Client.Stop]. A Client is safe for concurrent use.
type Client struct {
	sched  *scheduler.Scheduler
	logger log.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a new SDK client.
//
// Tasks can be submitted right away but their progress is not tracked until
// [Client.Start] is called.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	provider, err := local.NewProvider(local.ProviderConfig{FS: cfg.FS, TrashDir: cfg.TrashDir, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create file system provider: %w", err)
	}

	osHost, err := host.NewOS(host.OSConfig{Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create process host: %w", err)
	}

	var plugins plugin.Runtime
	switch cfg.PluginRuntime {
	case PluginRuntimeFake:
		plugins, err = fake.NewRuntime(fake.RuntimeConfig{AcceptUnknown: true, Logger: cfg.Logger})
	default:
		plugins, err = script.NewRuntime(script.RuntimeConfig{Dir: cfg.PluginsDir, Host: osHost, Logger: cfg.Logger})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create plugin runtime: %w", err)
	}

	var terminal *task.Terminal
	if cfg.Stdin != nil && cfg.Stdout != nil && cfg.Stderr != nil {
		terminal = &task.Terminal{Stdin: cfg.Stdin, Stdout: cfg.Stdout, Stderr: cfg.Stderr}
	}

	runner, err := task.NewRunner(task.RunnerConfig{
		VFS:          provider,
		Plugins:      plugins,
		Host:         osHost,
		Terminal:     terminal,
		BizarreRetry: cfg.BizarreRetry,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task runner: %w", err)
	}

	sched, err := scheduler.New(scheduler.Config{
		Runner:       runner,
		MicroWorkers: cfg.MicroWorkers,
		MacroWorkers: cfg.MacroWorkers,
		BizarreRetry: cfg.BizarreRetry,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}

	return &Client{sched: sched, logger: cfg.Logger}, nil
}

// Start starts tracking the progress of the tasks in the background.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started: %w", ErrNotValid)
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		if err := c.sched.Run(ctx); err != nil {
			c.logger.Errorf("Scheduler failed: %s", err)
		}
	}()

	return nil
}

// Stop cancels the running and queued tasks, waits for them and rejects any
// later submission. The registry stays readable after Stop returns.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-c.sched.Done()
}

// SubmitOpts are optional submission hooks.
type SubmitOpts struct {
	// OnDone is called once with the final task when it finishes.
	OnDone func(Task)
	// OnEntry is called by file operations with every source they finished.
	OnEntry func(src string)
}

// Submit schedules a task and returns its ID without blocking.
func (c *Client) Submit(in TaskIn, prio Priority, opts *SubmitOpts) (TaskID, error) {
	var o scheduler.SubmitOptions
	if opts != nil {
		o = scheduler.SubmitOptions{OnDone: opts.OnDone, OnEntry: opts.OnEntry}
	}
	return c.sched.SubmitWithOptions(in, prio, o)
}

// Cancel cancels a task, returns false if the task can't be cancelled anymore.
func (c *Client) Cancel(id TaskID) bool { return c.sched.Cancel(id) }

// Snapshot returns all the tasks in submission order.
func (c *Client) Snapshot() []Task { return c.sched.Snapshot() }

// Get returns a task.
func (c *Client) Get(id TaskID) (Task, bool) { return c.sched.Get(id) }

// Summary returns the aggregated progress.
func (c *Client) Summary() Summary { return c.sched.Summary() }

// Changes receives a coalesced notification every time the tasks change.
func (c *Client) Changes() <-chan struct{} { return c.sched.Changes() }

// WatchSummary calls fn with the summary every interval when it changed.
// It blocks until the context is done or the client is stopped.
func (c *Client) WatchSummary(ctx context.Context, interval time.Duration, fn func(Summary)) {
	c.sched.WatchSummary(ctx, interval, fn)
}

// Flush waits until every change made before the call is visible.
func (c *Client) Flush(ctx context.Context) error { return c.sched.Flush(ctx) }

// Dismiss removes a finished task.
func (c *Client) Dismiss(ctx context.Context, id TaskID) (bool, error) {
	return c.sched.Dismiss(ctx, id)
}

// ClearCompleted removes all the finished tasks.
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	return c.sched.ClearCompleted(ctx)
}
