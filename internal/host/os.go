package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
)

// OSConfig is the configuration of the OS host.
type OSConfig struct {
	Logger log.Logger
}

func (c *OSConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "host.OS"})
	return nil
}

// OS spawns real processes.
type OS struct {
	logger log.Logger
}

var _ Host = &OS{}

// NewOS returns a new OS host.
func NewOS(cfg OSConfig) (*OS, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &OS{logger: cfg.Logger}, nil
}

// Spawn starts the process. The context is only a checkpoint before spawning,
// the process lifetime is controlled with the returned handle.
func (o *OS) Spawn(ctx context.Context, spec Spec) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Cmd, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), envList(spec.Env)...)
	}
	if spec.Orphan {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	} else {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("command %q: %w", spec.Cmd, model.ErrNotFound)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("command %q: %w", spec.Cmd, model.ErrPermission)
		}
		return nil, fmt.Errorf("could not start %q: %w", spec.Cmd, err)
	}
	o.logger.Debugf("Spawned %q with pid %d", spec.Cmd, cmd.Process.Pid)

	return &osHandle{cmd: cmd, orphan: spec.Orphan}, nil
}

type osHandle struct {
	cmd    *exec.Cmd
	orphan bool
}

func (h *osHandle) Wait() (ExitStatus, error) {
	err := h.cmd.Wait()
	if err == nil {
		return ExitStatus{}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{}, err
	}

	status := ExitStatus{Code: exitErr.ExitCode()}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = unix.SignalName(ws.Signal())
	}
	return status, nil
}

func (h *osHandle) Kill() error {
	pid := h.cmd.Process.Pid
	if !h.orphan {
		// Negative pid targets the whole process group.
		pid = -pid
	}

	err := unix.Kill(pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func envList(env map[string]string) []string {
	l := make([]string, 0, len(env))
	for k, v := range env {
		l = append(l, k+"="+v)
	}
	sort.Strings(l)
	return l
}
