package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/model"
)

type waitResult struct {
	status host.ExitStatus
	err    error
}

func (r *Runner) process(ctx context.Context, in model.ProcessIn, e Emitter) error {
	if err := in.Validate(); err != nil {
		return err
	}

	logger := r.logger.WithCtxValues(ctx)

	// Blocking processes own the terminal, only one at a time.
	if in.Block {
		if err := r.hider.Acquire(ctx, 1); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("could not suspend the UI: %w", err)
		}
		defer r.hider.Release(1)
	}

	// Checkpoint.
	if err := ctx.Err(); err != nil {
		return err
	}

	stdout := &host.LineWriter{OnLine: func(l string) { e.Emit(model.OutLog{Line: l}) }}
	stderr := &host.LineWriter{OnLine: func(l string) { e.Emit(model.OutLog{Line: l}) }}
	spec := host.Spec{
		Cmd:    in.Cmd,
		Args:   in.Args,
		Cwd:    in.Cwd,
		Env:    in.Env,
		Orphan: in.Orphan,
		Stdout: stdout,
		Stderr: stderr,
	}
	switch {
	case in.Block && r.term != nil:
		spec.Stdin, spec.Stdout, spec.Stderr = r.term.Stdin, r.term.Stdout, r.term.Stderr
	case in.Orphan:
		// Orphans outlive the task, their output goes to /dev/null.
		spec.Stdout, spec.Stderr = nil, nil
	}

	handle, err := r.host.Spawn(ctx, spec)
	if err != nil {
		return err
	}

	waitC := make(chan waitResult, 1)
	go func() {
		status, err := handle.Wait()
		waitC <- waitResult{status: status, err: err}
	}()

	var res waitResult
	select {
	case res = <-waitC:
	case <-ctx.Done():
		if in.Orphan {
			logger.Debugf("Orphan process %q detached", in.Cmd)
			return ctx.Err()
		}
		if err := handle.Kill(); err != nil {
			logger.Warningf("Could not kill process %q: %s", in.Cmd, err)
		}
		<-waitC
		return ctx.Err()
	}
	stdout.Flush()
	stderr.Flush()

	if res.err != nil {
		return fmt.Errorf("could not wait for %q: %w", in.Cmd, res.err)
	}

	switch {
	case res.status.Success():
		return nil
	case in.Block && res.status.Code == conventions.ExitCodeInterrupted:
		// The user interrupted the blocking process with Ctrl-C.
		return nil
	}

	reason := stderr.Last()
	if reason == "" {
		reason = res.status.String()
	}
	return errors.New(reason)
}
