package task_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/marusama/semaphore/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/host/hostmock"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin/pluginmock"
	"github.com/slok/fmsched/internal/task"
	"github.com/slok/fmsched/internal/vfs/vfsmock"
)

func TestRunnerProcess(t *testing.T) {
	tests := map[string]struct {
		in      model.ProcessIn
		stdout  string
		stderr  string
		status  host.ExitStatus
		expOut  model.TaskOut
		expLogs []string
	}{
		"A successful process should succeed and stream its output.": {
			in:      model.ProcessIn{Cmd: "ls", Args: []string{"-l"}},
			stdout:  "a\nb\n",
			expOut:  model.OutSucc{},
			expLogs: []string{"a", "b"},
		},

		"A failing process should fail with its last stderr line.": {
			in:      model.ProcessIn{Cmd: "cp"},
			stderr:  "cp: missing operand\nTry 'cp --help'\n",
			status:  host.ExitStatus{Code: 1},
			expOut:  model.OutFail{Reason: "Try 'cp --help'"},
			expLogs: []string{"cp: missing operand", "Try 'cp --help'"},
		},

		"A failing process without output should fail with its exit status.": {
			in:     model.ProcessIn{Cmd: "false"},
			status: host.ExitStatus{Code: 2},
			expOut: model.OutFail{Reason: "exit status 2"},
		},

		"A blocking process interrupted by the user should succeed.": {
			in:     model.ProcessIn{Cmd: "vim", Block: true},
			status: host.ExitStatus{Code: 130},
			expOut: model.OutSucc{},
		},

		"A non blocking process exiting with 130 should fail.": {
			in:     model.ProcessIn{Cmd: "sleep"},
			status: host.ExitStatus{Code: 130},
			expOut: model.OutFail{Reason: "exit status 130"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			handle := hostmock.NewMockHandle(t)
			handle.On("Wait").Once().Return(test.status, nil)

			h := hostmock.NewMockHost(t)
			h.On("Spawn", mock.Anything, mock.MatchedBy(func(s host.Spec) bool {
				return s.Cmd == test.in.Cmd && s.Orphan == test.in.Orphan
			})).Once().Run(func(args mock.Arguments) {
				spec := args.Get(1).(host.Spec)
				fmt.Fprint(spec.Stdout, test.stdout)
				fmt.Fprint(spec.Stderr, test.stderr)
			}).Return(handle, nil)

			r, err := task.NewRunner(task.RunnerConfig{VFS: vfsmock.NewMockProvider(t), Plugins: pluginmock.NewMockRuntime(t), Host: h})
			require.NoError(err)

			rec := &recorder{}
			out := r.Run(context.Background(), test.in, rec, task.RunOpts{})
			assert.Equal(test.expOut, out)
			assert.Equal(test.expLogs, rec.logs())
		})
	}
}

func TestRunnerProcessOrphanOutput(t *testing.T) {
	tests := map[string]struct {
		status host.ExitStatus
		expOut model.TaskOut
	}{
		"An orphan process that exits fine should succeed.": {
			expOut: model.OutSucc{},
		},

		"A failing orphan process should fail with its exit status.": {
			status: host.ExitStatus{Code: 3},
			expOut: model.OutFail{Reason: "exit status 3"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			handle := hostmock.NewMockHandle(t)
			handle.On("Wait").Once().Return(test.status, nil)

			h := hostmock.NewMockHost(t)
			h.On("Spawn", mock.Anything, mock.MatchedBy(func(s host.Spec) bool {
				return s.Orphan && s.Stdout == nil && s.Stderr == nil
			})).Once().Return(handle, nil)

			r, err := task.NewRunner(task.RunnerConfig{VFS: vfsmock.NewMockProvider(t), Plugins: pluginmock.NewMockRuntime(t), Host: h})
			require.NoError(err)

			rec := &recorder{}
			out := r.Run(context.Background(), model.ProcessIn{Cmd: "xdg-open", Args: []string{"a.pdf"}, Orphan: true}, rec, task.RunOpts{})
			assert.Equal(test.expOut, out)
			assert.Empty(rec.logs())
		})
	}
}

func TestRunnerProcessCancel(t *testing.T) {
	tests := map[string]struct {
		orphan  bool
		expKill bool
	}{
		"Cancelling a process should kill it.": {
			expKill: true,
		},

		"Cancelling an orphan process should detach it without killing.": {
			orphan:  true,
			expKill: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exited := make(chan struct{})
			handle := hostmock.NewMockHandle(t)
			if test.expKill {
				handle.On("Kill").Once().Run(func(mock.Arguments) { close(exited) }).Return(nil)
				handle.On("Wait").Once().Run(func(mock.Arguments) { <-exited }).Return(host.ExitStatus{Code: -1, Signal: "SIGKILL"}, nil)
			} else {
				t.Cleanup(func() { close(exited) })
				handle.On("Wait").Maybe().Run(func(mock.Arguments) { <-exited }).Return(host.ExitStatus{}, nil)
			}

			h := hostmock.NewMockHost(t)
			h.On("Spawn", mock.Anything, mock.Anything).Once().Run(func(mock.Arguments) { cancel() }).Return(handle, nil)

			r, err := task.NewRunner(task.RunnerConfig{VFS: vfsmock.NewMockProvider(t), Plugins: pluginmock.NewMockRuntime(t), Host: h})
			require.NoError(err)

			out := r.Run(ctx, model.ProcessIn{Cmd: "sleep", Args: []string{"100"}, Orphan: test.orphan}, &recorder{}, task.RunOpts{})
			assert.Equal(model.OutCancelled{}, out)
		})
	}
}

func TestRunnerProcessBlockingWaitsForTerminal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	hider := semaphore.New(1)
	require.NoError(hider.Acquire(context.Background(), 1))

	r, err := task.NewRunner(task.RunnerConfig{
		VFS:     vfsmock.NewMockProvider(t),
		Plugins: pluginmock.NewMockRuntime(t),
		Host:    hostmock.NewMockHost(t),
		Hider:   hider,
	})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := r.Run(ctx, model.ProcessIn{Cmd: "vim", Block: true}, &recorder{}, task.RunOpts{})
	assert.Equal(model.OutCancelled{}, out)

	// The semaphore is still held by us.
	assert.Equal(1, hider.GetCount())
}

func TestRunnerProcessBlockingUsesTerminal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	term := &task.Terminal{Stdin: strings.NewReader(""), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	handle := hostmock.NewMockHandle(t)
	handle.On("Wait").Once().Return(host.ExitStatus{}, nil)
	h := hostmock.NewMockHost(t)
	h.On("Spawn", mock.Anything, mock.MatchedBy(func(s host.Spec) bool {
		return s.Stdin == term.Stdin && s.Stdout == term.Stdout && s.Stderr == term.Stderr
	})).Once().Return(handle, nil)

	hider := semaphore.New(1)
	r, err := task.NewRunner(task.RunnerConfig{
		VFS:      vfsmock.NewMockProvider(t),
		Plugins:  pluginmock.NewMockRuntime(t),
		Host:     h,
		Hider:    hider,
		Terminal: term,
	})
	require.NoError(err)

	out := r.Run(context.Background(), model.ProcessIn{Cmd: "vim", Block: true}, &recorder{}, task.RunOpts{})
	assert.Equal(model.OutSucc{}, out)
	assert.Equal(0, hider.GetCount())
}
