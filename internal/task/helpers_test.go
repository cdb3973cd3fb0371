package task_test

import (
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/vfs/local"
)

// recorder is an emitter that keeps every event.
type recorder struct {
	mu   sync.Mutex
	outs []model.TaskOut
}

func (r *recorder) Emit(o model.TaskOut) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = append(r.outs, o)
}

func (r *recorder) prog(kind model.TaskKind, terminal model.TaskOut) model.TaskProg {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := model.NewTaskProg(kind)
	for _, o := range r.outs {
		p = p.Reduce(kind, o)
	}
	return p.Reduce(kind, terminal)
}

func (r *recorder) logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ls []string
	for _, o := range r.outs {
		if l, ok := o.(model.OutLog); ok {
			ls = append(ls, l.Line)
		}
	}
	return ls
}

func (r *recorder) sizes() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ss []uint64
	for _, o := range r.outs {
		if s, ok := o.(model.OutSize); ok {
			ss = append(ss, s.Bytes)
		}
	}
	return ss
}

func newMemVFS(t *testing.T, files map[string]string) (*local.Provider, afero.Fs) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(data), 0o644))
	}
	p, err := local.NewProvider(local.ProviderConfig{FS: fsys, TrashDir: "/trash"})
	require.NoError(t, err)

	return p, fsys
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (f fileInfo) Name() string       { return f.name }
func (f fileInfo) Size() int64        { return f.size }
func (f fileInfo) ModTime() time.Time { return time.Time{} }
func (f fileInfo) IsDir() bool        { return f.dir }
func (f fileInfo) Sys() any           { return nil }
func (f fileInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func newOSVFS(dir string) (*local.Provider, error) {
	return local.NewProvider(local.ProviderConfig{TrashDir: dir + "/trash"})
}
