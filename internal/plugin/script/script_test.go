package script_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/host"
	"github.com/slok/fmsched/internal/host/hostmock"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
	"github.com/slok/fmsched/internal/plugin/script"
)

func writePlugin(t *testing.T, dir, name, body string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), perm))
}

func TestRuntimeInvoke(t *testing.T) {
	tests := map[string]struct {
		plugins map[string]string
		call    plugin.Call
		expErr  error
		expMsg  string
	}{
		"A successful plugin should not fail.": {
			plugins: map[string]string{"mime": `[ "$1" = "fetch" ] && [ "$2" = "/a" ] || exit 1`},
			call:    plugin.Call{Plugin: "mime", Method: plugin.MethodFetch, Args: []string{"/a"}},
		},

		"A plugin exiting with 75 should fail with a transient error.": {
			plugins: map[string]string{"thumb": `echo "device busy" >&2; exit 75`},
			call:    plugin.Call{Plugin: "thumb", Method: plugin.MethodPreload, Args: []string{"/a.png"}},
			expErr:  model.ErrTransient,
			expMsg:  "device busy",
		},

		"A failing plugin should fail with its last stderr line.": {
			plugins: map[string]string{"zoxide": `echo "first" >&2; echo "database missing" >&2; exit 2`},
			call:    plugin.Call{Plugin: "zoxide", Method: plugin.MethodEntry},
			expMsg:  "database missing",
		},

		"A failing plugin without output should fail with its exit status.": {
			plugins: map[string]string{"zoxide": `exit 2`},
			call:    plugin.Call{Plugin: "zoxide", Method: plugin.MethodEntry},
			expMsg:  "exit status 2",
		},

		"A missing plugin should fail with not found.": {
			call:   plugin.Call{Plugin: "missing", Method: plugin.MethodEntry},
			expErr: model.ErrNotFound,
		},

		"An invalid call should fail.": {
			call:   plugin.Call{Plugin: "../x", Method: plugin.MethodEntry},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			dir := t.TempDir()
			for name, body := range test.plugins {
				writePlugin(t, dir, name, body, 0o755)
			}

			h, err := host.NewOS(host.OSConfig{})
			require.NoError(err)
			rt, err := script.NewRuntime(script.RuntimeConfig{Dir: dir, Host: h})
			require.NoError(err)

			err = rt.Invoke(context.Background(), test.call)
			if test.expErr == nil && test.expMsg == "" {
				assert.NoError(err)
				return
			}
			require.Error(err)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			}
			if test.expMsg != "" {
				assert.Contains(err.Error(), test.expMsg)
			}
			if test.expErr != model.ErrTransient {
				assert.NotErrorIs(err, model.ErrTransient)
			}
		})
	}
}

func TestRuntimeInvokeNotExecutable(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "mime", "exit 0", 0o644)

	rt, err := script.NewRuntime(script.RuntimeConfig{Dir: dir, Host: hostmock.NewMockHost(t)})
	require.NoError(t, err)

	err = rt.Invoke(context.Background(), plugin.Call{Plugin: "mime", Method: plugin.MethodFetch})
	assert.ErrorIs(t, err, model.ErrPermission)
}

func TestRuntimeInvokeCancelKills(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	writePlugin(t, dir, "slow", "exit 0", 0o755)

	released := make(chan struct{})
	handle := hostmock.NewMockHandle(t)
	handle.On("Kill").Once().Run(func(mock.Arguments) { close(released) }).Return(nil)
	handle.On("Wait").Once().Run(func(mock.Arguments) { <-released }).Return(host.ExitStatus{Code: -1, Signal: "SIGKILL"}, nil)

	h := hostmock.NewMockHost(t)
	h.On("Spawn", mock.Anything, mock.MatchedBy(func(s host.Spec) bool {
		return s.Cmd == filepath.Join(dir, "slow") && s.Args[0] == plugin.MethodEntry && s.Args[1] == "x"
	})).Once().Return(handle, nil)

	rt, err := script.NewRuntime(script.RuntimeConfig{Dir: dir, Host: h})
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = rt.Invoke(ctx, plugin.Call{Plugin: "slow", Method: plugin.MethodEntry, Args: []string{"x"}})
	assert.ErrorIs(err, context.DeadlineExceeded)
}

func TestNewRuntimeRequiresHost(t *testing.T) {
	_, err := script.NewRuntime(script.RuntimeConfig{Dir: t.TempDir()})
	assert.Error(t, err)
}
