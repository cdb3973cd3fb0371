// Package script runs plugins as executables stored in a directory.
//
// A plugin `foo` is the executable `<dir>/foo`, called as `foo <method> <args...>`.
// Exit code 75 (EX_TEMPFAIL) marks a transient failure.
package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
)

// RuntimeConfig is the configuration of the script runtime.
type RuntimeConfig struct {
	// Dir is the directory where plugin executables live.
	Dir    string
	Host   host.Host
	Logger log.Logger
}

func (c *RuntimeConfig) defaults() error {
	if c.Dir == "" {
		c.Dir = conventions.DefaultPluginsDir()
	}

	if c.Host == nil {
		return fmt.Errorf("host is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "plugin.Script"})

	return nil
}

// Runtime is the script plugin runtime.
type Runtime struct {
	dir    string
	host   host.Host
	logger log.Logger
}

var _ plugin.Runtime = &Runtime{}

// NewRuntime returns a new script runtime.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runtime{
		dir:    cfg.Dir,
		host:   cfg.Host,
		logger: cfg.Logger,
	}, nil
}

func (r *Runtime) Invoke(ctx context.Context, call plugin.Call) error {
	if err := call.Validate(); err != nil {
		return err
	}

	path := filepath.Join(r.dir, call.Plugin)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("plugin %q: %w", call.Plugin, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("plugin %q: %w", call.Plugin, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("plugin %q is not executable: %w", call.Plugin, model.ErrPermission)
	}

	logger := r.logger.WithCtxValues(ctx).WithValues(log.Kv{"plugin": call.Plugin, "method": call.Method})
	stderr := &host.LineWriter{OnLine: func(l string) { logger.Debugf("stderr: %s", l) }}
	handle, err := r.host.Spawn(ctx, host.Spec{
		Cmd:    path,
		Args:   append([]string{call.Method}, call.Args...),
		Cwd:    r.dir,
		Stderr: stderr,
	})
	if err != nil {
		return fmt.Errorf("could not run plugin %q: %w", call.Plugin, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := handle.Kill(); err != nil {
				logger.Warningf("Could not kill plugin: %s", err)
			}
		case <-done:
		}
	}()

	status, err := handle.Wait()
	stderr.Flush()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("plugin %q: %w", call.Plugin, err)
	}

	switch {
	case status.Success():
		return nil
	case status.Code == conventions.ExitCodeTransient:
		return fmt.Errorf("plugin %q %s: %s: %w", call.Plugin, call.Method, reason(status, stderr), model.ErrTransient)
	default:
		return fmt.Errorf("plugin %q %s: %s", call.Plugin, call.Method, reason(status, stderr))
	}
}

func reason(status host.ExitStatus, stderr *host.LineWriter) string {
	if l := stderr.Last(); l != "" {
		return l
	}
	return status.String()
}
