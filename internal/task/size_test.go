package task_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/host/hostmock"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin/pluginmock"
	"github.com/slok/fmsched/internal/task"
)

func TestRunnerSizeWalk(t *testing.T) {
	tests := map[string]struct {
		files    map[string]string
		in       model.SizeWalkIn
		expOut   model.TaskOut
		expSizes bool
	}{
		"The size of a tree should be the sum of its files.": {
			files: map[string]string{
				"/d/a":       strings.Repeat("a", 10),
				"/d/b/c":     strings.Repeat("c", 20),
				"/d/b/e/f":   strings.Repeat("f", 30),
				"/other/big": strings.Repeat("x", 100),
			},
			in:     model.SizeWalkIn{Target: "/d"},
			expOut: model.OutDone{Bytes: 60},
		},

		"The size of a file should be its own size.": {
			files:  map[string]string{"/a": "12345"},
			in:     model.SizeWalkIn{Target: "/a"},
			expOut: model.OutDone{Bytes: 5},
		},

		"A throttled walk should report partial sizes.": {
			files:    map[string]string{"/d/a": "aa", "/d/b/c": "ccc"},
			in:       model.SizeWalkIn{Target: "/d", Throttle: time.Hour},
			expOut:   model.OutDone{Bytes: 5},
			expSizes: true,
		},

		"A missing target should fail.": {
			in:     model.SizeWalkIn{Target: "/missing"},
			expOut: nil,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			p, _ := newMemVFS(t, test.files)
			r, err := task.NewRunner(task.RunnerConfig{VFS: p, Plugins: pluginmock.NewMockRuntime(t), Host: hostmock.NewMockHost(t)})
			require.NoError(err)

			rec := &recorder{}
			out := r.Run(context.Background(), test.in, rec, task.RunOpts{})
			if test.expOut == nil {
				_, ok := out.(model.OutFail)
				assert.True(ok)
				return
			}
			assert.Equal(test.expOut, out)

			sizes := rec.sizes()
			if test.expSizes {
				// The first report is never throttled, the rest are within the hour.
				require.Len(sizes, 1)
				assert.LessOrEqual(sizes[0], uint64(5))
			} else {
				assert.Empty(sizes)
			}
		})
	}
}
