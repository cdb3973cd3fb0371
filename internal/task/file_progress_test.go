package task_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/host/hostmock"
	loglogrus "github.com/slok/fmsched/internal/log/logrus"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin/pluginmock"
	"github.com/slok/fmsched/internal/task"
	"github.com/slok/fmsched/internal/vfs"
	"github.com/slok/fmsched/internal/vfs/local"
	"github.com/slok/fmsched/internal/vfs/vfsmock"
)

func (r *recorder) events() []model.TaskOut {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.TaskOut(nil), r.outs...)
}

func (r *recorder) founds() int {
	n := 0
	for _, o := range r.events() {
		if _, ok := o.(model.OutFoundN); ok {
			n++
		}
	}
	return n
}

// assertCountersAlways reduces the events one by one checking the progress
// counters never break their bounds.
func assertCountersAlways(t *testing.T, outs []model.TaskOut) {
	t.Helper()

	p := model.NewTaskProg(model.TaskKindFileOp)
	for i, o := range outs {
		p = p.Reduce(model.TaskKindFileOp, o)
		assert.LessOrEqual(t, p.Succ+p.Fail, p.Found, "event %d: %T", i, o)
		assert.GreaterOrEqual(t, p.Found, p.Processed, "event %d: %T", i, o)
	}
}

// dirHook calls onReadDir before listing a directory.
type dirHook struct {
	*local.Provider
	onReadDir func(path string)
}

func (d dirHook) ReadDir(ctx context.Context, path string) ([]fs.FileInfo, error) {
	d.onReadDir(path)
	return d.Provider.ReadDir(ctx, path)
}

func TestRunnerFileOpFoundWhileWalking(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, _ := newMemVFS(t, map[string]string{"/src/d/a": "a", "/src/d/sub/y": "yy"})
	rec := &recorder{}
	foundBeforeSub := -1
	v := dirHook{Provider: p, onReadDir: func(path string) {
		if path == "/src/d/sub" {
			foundBeforeSub = rec.founds()
		}
	}}

	r, err := task.NewRunner(task.RunnerConfig{VFS: v, Plugins: pluginmock.NewMockRuntime(t), Host: hostmock.NewMockHost(t)})
	require.NoError(err)

	out := r.Run(context.Background(), model.FileOpIn{Verb: model.FileVerbCopy, Sources: []string{"/src/d"}, Destination: "/dst"}, rec, task.RunOpts{})
	assert.Equal(model.OutSucc{}, out)
	assert.Equal(1, foundBeforeSub, "entries should be reported while the tree is walked")
	assert.Equal(2, rec.founds())
}

func TestRunnerFileOpCountersAlwaysBounded(t *testing.T) {
	tests := map[string]struct {
		files  map[string]string
		in     model.FileOpIn
		expOut model.TaskOut
	}{
		"Copying a tree should keep the counters bounded.": {
			files:  map[string]string{"/src/d/x": "x", "/src/d/sub/y": "yy", "/src/d/sub/z": "zzz"},
			in:     model.FileOpIn{Verb: model.FileVerbCopy, Sources: []string{"/src/d"}, Destination: "/dst"},
			expOut: model.OutSucc{},
		},

		"Copying a tree with a failing source should keep the counters bounded.": {
			files:  map[string]string{"/src/d/x": "x", "/src/d/sub/y": "yy"},
			in:     model.FileOpIn{Verb: model.FileVerbCopy, Sources: []string{"/src/d", "/src/missing"}, Destination: "/dst"},
			expOut: model.OutFail{Reason: "1 of 3 entries failed"},
		},

		"Removing a tree should keep the counters bounded.": {
			files:  map[string]string{"/src/d/x": "x", "/src/d/sub/y": "yy"},
			in:     model.FileOpIn{Verb: model.FileVerbRemove, Sources: []string{"/src/d"}, Permanently: true},
			expOut: model.OutSucc{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			p, _ := newMemVFS(t, test.files)
			r, err := task.NewRunner(task.RunnerConfig{VFS: p, Plugins: pluginmock.NewMockRuntime(t), Host: hostmock.NewMockHost(t)})
			require.NoError(err)

			rec := &recorder{}
			out := r.Run(context.Background(), test.in, rec, task.RunOpts{})
			assert.Equal(t, test.expOut, out)
			assertCountersAlways(t, append(rec.events(), out))
		})
	}
}

func TestRunnerFileOpPermissionDeniedSource(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	const n = 5
	m := vfsmock.NewMockProvider(t)
	m.On("Mkdir", mock.Anything, "/dst", mock.Anything).Once().Return(nil)
	var sources []string
	for i := 1; i <= n; i++ {
		src, dst := fmt.Sprintf("/src/%d", i), fmt.Sprintf("/dst/%d", i)
		sources = append(sources, src)
		m.On("Stat", mock.Anything, src, false).Once().Return(fileInfo{name: fmt.Sprint(i), size: 1}, nil)
		if i == 3 {
			m.On("Copy", mock.Anything, src, dst, vfs.CopyOpts{Force: true}).Once().Return(int64(0), fmt.Errorf("open %s: %w", src, model.ErrPermission))
			continue
		}
		m.On("Copy", mock.Anything, src, dst, vfs.CopyOpts{Force: true}).Once().Return(int64(1), nil)
	}

	r, err := task.NewRunner(task.RunnerConfig{VFS: m, Plugins: pluginmock.NewMockRuntime(t), Host: hostmock.NewMockHost(t)})
	require.NoError(err)

	var entries []string
	rec := &recorder{}
	in := model.FileOpIn{Verb: model.FileVerbCopy, Sources: sources, Destination: "/dst", Force: true}
	out := r.Run(context.Background(), in, rec, task.RunOpts{OnEntry: func(src string) { entries = append(entries, src) }})

	assert.Equal(model.OutFail{Reason: "1 of 5 entries failed"}, out)
	exp := model.TaskProg{State: model.TaskStateFailed, Total: n, Found: n, Processed: n, Succ: n - 1, Fail: 1, FoundBytes: n, ProcessedBytes: n - 1}
	assert.Equal(exp, rec.prog(model.TaskKindFileOp, out))
	assert.Equal([]string{"/src/1", "/src/2", "/src/4", "/src/5"}, entries)
	assertCountersAlways(t, append(rec.events(), out))
}

func TestRunnerFileOpFollowLoop(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	d := filepath.Join(dir, "src", "d")
	require.NoError(os.MkdirAll(d, 0o755))
	require.NoError(os.WriteFile(filepath.Join(d, "x"), []byte("x"), 0o644))
	require.NoError(os.Symlink(".", filepath.Join(d, "self")))
	require.NoError(os.Symlink("..", filepath.Join(d, "up")))

	p, err := newOSVFS(dir)
	require.NoError(err)
	r, err := task.NewRunner(task.RunnerConfig{VFS: p, Plugins: pluginmock.NewMockRuntime(t), Host: hostmock.NewMockHost(t)})
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := &recorder{}
	in := model.FileOpIn{Verb: model.FileVerbCopy, Sources: []string{d}, Destination: filepath.Join(dir, "dst"), Follow: true}
	out := r.Run(ctx, in, rec, task.RunOpts{})

	// self and up/d point back to d.
	assert.Equal(model.OutFail{Reason: "2 of 3 entries failed"}, out)
	exp := model.TaskProg{State: model.TaskStateFailed, Total: 3, Found: 3, Processed: 3, Succ: 1, Fail: 2, FoundBytes: 1, ProcessedBytes: 1}
	assert.Equal(exp, rec.prog(model.TaskKindFileOp, out))

	loops := 0
	for _, l := range rec.logs() {
		if strings.Contains(l, "filesystem loop") {
			loops++
		}
	}
	assert.Equal(2, loops)

	got, err := os.ReadFile(filepath.Join(dir, "dst", "d", "x"))
	require.NoError(err)
	assert.Equal("x", string(got))
	_, err = os.Stat(filepath.Join(dir, "dst", "d", "up", "d"))
	assert.True(os.IsNotExist(err))
}

func TestRunnerFileOpCutPruneErrors(t *testing.T) {
	tests := map[string]struct {
		pruneErr error
		expLog   bool
	}{
		"Pruning a directory that still has content should not be logged.": {
			pruneErr: &fs.PathError{Op: "remove", Path: "/src/d", Err: syscall.ENOTEMPTY},
			expLog:   false,
		},

		"Pruning a directory that can't be removed should be logged.": {
			pruneErr: fmt.Errorf("remove /src/d: %w", model.ErrPermission),
			expLog:   true,
		},

		"Pruning an emptied directory should not log anything.": {
			expLog: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := vfsmock.NewMockProvider(t)
			m.On("Mkdir", mock.Anything, "/dst", mock.Anything).Once().Return(nil)
			m.On("Stat", mock.Anything, "/src/d", false).Once().Return(fileInfo{name: "d", dir: true}, nil)
			m.On("Rename", mock.Anything, "/src/d", "/dst/d").Once().Return(fmt.Errorf("cross device: %w", model.ErrNotSupported))
			m.On("ReadDir", mock.Anything, "/src/d").Once().Return([]fs.FileInfo{fileInfo{name: "x", size: 1}}, nil)
			m.On("Mkdir", mock.Anything, "/dst/d", mock.Anything).Once().Return(nil)
			m.On("Copy", mock.Anything, "/src/d/x", "/dst/d/x", vfs.CopyOpts{Force: true}).Once().Return(int64(1), nil)
			m.On("Remove", mock.Anything, "/src/d/x", vfs.RemoveOpts{Permanently: true}).Once().Return(nil)
			m.On("Remove", mock.Anything, "/src/d", vfs.RemoveOpts{Permanently: true}).Once().Return(test.pruneErr)

			l, hook := logrustest.NewNullLogger()
			l.SetLevel(logrus.DebugLevel)
			r, err := task.NewRunner(task.RunnerConfig{
				VFS:     m,
				Plugins: pluginmock.NewMockRuntime(t),
				Host:    hostmock.NewMockHost(t),
				Logger:  loglogrus.NewLogrus(logrus.NewEntry(l)),
			})
			require.NoError(err)

			in := model.FileOpIn{Verb: model.FileVerbCut, Sources: []string{"/src/d"}, Destination: "/dst", Force: true}
			out := r.Run(context.Background(), in, &recorder{}, task.RunOpts{})
			assert.Equal(model.OutSucc{}, out)

			logged := false
			for _, e := range hook.AllEntries() {
				if strings.HasPrefix(e.Message, "Could not prune") {
					logged = true
				}
			}
			assert.Equal(test.expLog, logged)
		})
	}
}
