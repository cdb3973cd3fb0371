package task

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/slok/fmsched/internal/model"
)

// sizeWalk returns the recursive size of the target without following symlinks.
// Unreadable directories are skipped, partial sizes are reported at most once per
// throttle interval.
func (r *Runner) sizeWalk(ctx context.Context, in model.SizeWalkIn, e Emitter) (uint64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	info, err := r.vfs.Stat(ctx, in.Target, false)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return uint64(max(info.Size(), 0)), nil
	}

	report := rate.Sometimes{Interval: in.Throttle}
	logger := r.logger.WithCtxValues(ctx)

	var total uint64
	pending := []string{in.Target}
	for len(pending) > 0 {
		// Checkpoint per directory.
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		children, err := r.vfs.ReadDir(ctx, dir)
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		if err != nil {
			logger.Debugf("Skipping %q: %s", dir, err)
			continue
		}

		for _, c := range children {
			switch {
			case c.IsDir():
				pending = append(pending, filepath.Join(dir, c.Name()))
			case c.Mode()&fs.ModeType == 0:
				total += uint64(max(c.Size(), 0))
			}
		}

		if in.Throttle > 0 {
			report.Do(func() { e.Emit(model.OutSize{Bytes: total}) })
		}
	}

	return total, nil
}
