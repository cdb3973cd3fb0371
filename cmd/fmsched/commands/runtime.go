package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/run"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/config"
	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
	"github.com/slok/fmsched/internal/plugin/fake"
	"github.com/slok/fmsched/internal/plugin/script"
	"github.com/slok/fmsched/internal/printer"
	"github.com/slok/fmsched/internal/scheduler"
	"github.com/slok/fmsched/internal/task"
	"github.com/slok/fmsched/internal/vfs/local"
)

// loadConfig loads the configuration file and applies the global flag overrides.
// A missing default file is not an error, a missing file set by the user is.
func (c *RootCommand) loadConfig(ctx context.Context) (config.Config, error) {
	repo := config.NewRepository(os.DirFS("/"))

	paths := []string{c.ConfigPath}
	if !c.ConfigSet {
		paths = append(paths, filepath.Join(conventions.ConfigDir(), conventions.ConfigFileTOML))
	}

	cfg := config.Default()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid config path %q: %w", p, err)
		}

		loaded, err := repo.GetConfig(ctx, strings.TrimPrefix(abs, "/"))
		if errors.Is(err, fs.ErrNotExist) && !c.ConfigSet {
			continue
		}
		if err != nil {
			return config.Config{}, fmt.Errorf("could not load config %q: %w", abs, err)
		}

		c.Logger.Debugf("Configuration loaded from %q", abs)
		cfg = loaded
		break
	}

	if c.MicroWorkers != 0 {
		cfg.Tasks.MicroWorkers = c.MicroWorkers
	}
	if c.MacroWorkers != 0 {
		cfg.Tasks.MacroWorkers = c.MacroWorkers
	}
	if c.BizarreRetry != 0 {
		cfg.Tasks.BizarreRetry = c.BizarreRetry
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newPluginRuntime returns the plugin runtime selected by the global flags.
func (c *RootCommand) newPluginRuntime(cfg config.Config, h host.Host) (plugin.Runtime, error) {
	switch c.PluginRuntime {
	case PluginRuntimeFake:
		return fake.NewRuntime(fake.RuntimeConfig{AcceptUnknown: true, Logger: c.Logger})
	default:
		return script.NewRuntime(script.RuntimeConfig{Dir: cfg.Plugins.Dir, Host: h, Logger: c.Logger})
	}
}

// newScheduler wires the scheduler with the local file system, the OS
// processes and the plugin runtime.
func (c *RootCommand) newScheduler(cfg config.Config) (*scheduler.Scheduler, error) {
	provider, err := local.NewProvider(local.ProviderConfig{TrashDir: cfg.Tasks.TrashDir, Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create file system provider: %w", err)
	}

	osHost, err := host.NewOS(host.OSConfig{Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create process host: %w", err)
	}

	plugins, err := c.newPluginRuntime(cfg, osHost)
	if err != nil {
		return nil, fmt.Errorf("could not create plugin runtime: %w", err)
	}

	runner, err := task.NewRunner(task.RunnerConfig{
		VFS:          provider,
		Plugins:      plugins,
		Host:         osHost,
		Terminal:     &task.Terminal{Stdin: c.Stdin, Stdout: c.Stdout, Stderr: c.Stderr},
		BizarreRetry: cfg.Tasks.BizarreRetry,
		Logger:       c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task runner: %w", err)
	}

	sched, err := scheduler.New(scheduler.Config{
		Runner:       runner,
		MicroWorkers: cfg.Tasks.MicroWorkers,
		MacroWorkers: cfg.Tasks.MacroWorkers,
		BizarreRetry: cfg.Tasks.BizarreRetry,
		Logger:       c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}

	return sched, nil
}

func newPrinter(w io.Writer, format string) printer.Printer {
	if format == "json" {
		return printer.NewJSONPrinter(w)
	}
	return printer.NewTablePrinter(w)
}

// runTasks runs the tasks on a new scheduler and waits until all of them finished.
func (c *RootCommand) runTasks(ctx context.Context, flags taskFlags, req apprun.Request) error {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return err
	}

	return c.runTasksWithConfig(ctx, cfg, flags, req)
}

func (c *RootCommand) runTasksWithConfig(ctx context.Context, cfg config.Config, flags taskFlags, req apprun.Request) error {
	sched, err := c.newScheduler(cfg)
	if err != nil {
		return err
	}

	var progressOut io.Writer
	if !c.NoProgress {
		progressOut = c.Stderr
	}

	req.Quiet = req.Quiet || flags.quiet
	svc, err := apprun.NewService(apprun.ServiceConfig{
		Scheduler:   sched,
		Printer:     newPrinter(c.Stdout, flags.format),
		ProgressOut: progressOut,
		Logger:      c.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	var g run.Group

	// Scheduler.
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(
			func() error {
				return sched.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Tasks.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				_, err := svc.Run(ctx, req)
				return err
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// items returns the run items of the payloads with the priority of the flags.
func (f taskFlags) items(ins ...model.TaskIn) ([]apprun.Item, error) {
	prio, err := model.ParsePriority(f.priority)
	if err != nil {
		return nil, err
	}

	items := make([]apprun.Item, 0, len(ins))
	for _, in := range ins {
		items = append(items, apprun.Item{In: in, Priority: prio})
	}
	return items, nil
}

func absPaths(paths []string) ([]string, error) {
	res := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}
		res = append(res, abs)
	}
	return res, nil
}
