// Package host spawns external processes for process tasks and script plugins.
package host

import (
	"context"
	"fmt"
	"io"
)

// Spec describes a process to spawn.
type Spec struct {
	Cmd  string
	Args []string
	Cwd  string
	// Env is added on top of the current environment.
	Env map[string]string
	// Orphan starts the process in its own session, Kill is never propagated
	// to its children.
	Orphan bool
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExitStatus is the result of a finished process.
type ExitStatus struct {
	Code int
	// Signal is set when the process was terminated by a signal.
	Signal string
}

// Success returns true when the process exited with 0.
func (e ExitStatus) Success() bool { return e.Code == 0 && e.Signal == "" }

func (e ExitStatus) String() string {
	if e.Signal != "" {
		return fmt.Sprintf("terminated by signal %s", e.Signal)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Handle is a running process.
type Handle interface {
	// Wait blocks until the process exits. The error is only set when the
	// status couldn't be obtained.
	Wait() (ExitStatus, error)
	// Kill terminates the process (and its process group when not orphan).
	Kill() error
}

// Host spawns processes.
type Host interface {
	Spawn(ctx context.Context, spec Spec) (Handle, error)
}
