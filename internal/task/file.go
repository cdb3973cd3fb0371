package task

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/vfs"
)

// batch keeps the per entry accounting of a file operation.
type batch struct {
	e      Emitter
	total  int
	failed int
}

func (b *batch) found(bytes int64) {
	b.total++
	b.e.Emit(model.OutFoundN{N: 1, Bytes: uint64(max(bytes, 0))})
}

func (b *batch) foundEntry(e entry) { b.found(e.size) }

func (b *batch) processed(src string, bytes int64, err error) {
	if err != nil {
		b.failed++
		b.e.Emit(model.OutProcessedOne{OK: false, Source: src, Reason: err.Error()})
		b.e.Emit(model.OutLog{Line: fmt.Sprintf("Failed %q: %s", src, err)})
		return
	}
	b.e.Emit(model.OutProcessedOne{OK: true, Bytes: uint64(max(bytes, 0)), Source: src})
}

func (b *batch) err() error {
	if b.failed > 0 {
		return fmt.Errorf("%d of %d entries failed", b.failed, b.total)
	}
	return nil
}

func (r *Runner) fileOp(ctx context.Context, in model.FileOpIn, e Emitter, opts RunOpts) error {
	if err := in.Validate(); err != nil {
		return err
	}

	b := &batch{e: e}
	if in.Verb == model.FileVerbRemove {
		return r.remove(ctx, in, b, opts)
	}

	if err := r.guardNesting(ctx, in); err != nil {
		return err
	}

	if err := r.vfs.Mkdir(ctx, in.Destination, 0o755); err != nil {
		return fmt.Errorf("could not create destination %q: %w", in.Destination, err)
	}

	for _, src := range in.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := r.transfer(ctx, in, src, b)
		if err != nil {
			return err
		}
		if ok && opts.OnEntry != nil {
			opts.OnEntry(src)
		}
	}

	return b.err()
}

// guardNesting fails if any directory source would be copied inside itself.
func (r *Runner) guardNesting(ctx context.Context, in model.FileOpIn) error {
	if in.Verb == model.FileVerbLink {
		return nil
	}

	for _, src := range in.Sources {
		if !vfs.IsNested(src, in.Destination) {
			continue
		}
		info, err := r.vfs.Stat(ctx, src, in.Follow)
		if err == nil && info.IsDir() {
			return fmt.Errorf("cannot %s directory %q into itself: %w", in.Verb, src, model.ErrNotValid)
		}
	}

	return nil
}

// transfer runs copy, cut, link or hardlink for a single source. Returns true
// when every entry of the source succeeded, errors are only returned on cancellation.
func (r *Runner) transfer(ctx context.Context, in model.FileOpIn, src string, b *batch) (bool, error) {
	info, err := r.vfs.Stat(ctx, src, in.Follow)
	if err != nil {
		return r.failOne(b, src, err)
	}

	dst := filepath.Join(in.Destination, filepath.Base(src))
	if !in.Force {
		dst, err = vfs.UniquePath(ctx, r.vfs, dst)
		if err != nil {
			return r.failOne(b, src, err)
		}
	}

	switch in.Verb {
	case model.FileVerbLink:
		b.found(0)
		err := r.retry(ctx, b.e, src, func() error {
			return r.vfs.Link(ctx, src, dst, vfs.LinkOpts{Force: in.Force, Relative: in.Relative})
		})
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		b.processed(src, 0, err)
		return err == nil, nil

	case model.FileVerbCut:
		err := r.vfs.Rename(ctx, src, dst)
		if err == nil {
			size := info.Size()
			if !info.Mode().IsRegular() {
				size = 0
			}
			b.found(size)
			b.processed(src, size, nil)
			return true, nil
		}
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		r.logger.WithCtxValues(ctx).Debugf("Rename of %q failed, falling back to copy: %s", src, err)
	}

	return r.copyTree(ctx, in, src, dst, info, b)
}

func (r *Runner) copyTree(ctx context.Context, in model.FileOpIn, src, dst string, info fs.FileInfo, b *batch) (bool, error) {
	ents, err := r.collect(ctx, src, dst, info, in.Follow, b.foundEntry)
	if err != nil {
		return false, err
	}

	ok := true
	for _, en := range ents {
		// Checkpoint.
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if en.err != nil {
			b.processed(en.src, 0, en.err)
			ok = false
			continue
		}

		if en.dir {
			err := r.retry(ctx, b.e, en.dst, func() error { return r.vfs.Mkdir(ctx, en.dst, en.mode.Perm()|0o700) })
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return false, err
				}
				b.found(0)
				b.processed(en.src, 0, err)
				ok = false
			}
			continue
		}

		n, err := r.transferEntry(ctx, in, en, b)
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		b.processed(en.src, n, err)
		ok = ok && err == nil
	}

	if in.Verb == model.FileVerbCut {
		r.prune(ctx, ents)
	}

	return ok, nil
}

func (r *Runner) transferEntry(ctx context.Context, in model.FileOpIn, en entry, b *batch) (int64, error) {
	var n int64
	err := r.retry(ctx, b.e, en.src, func() (err error) {
		if in.Verb == model.FileVerbHardlink {
			n = en.size
			return r.vfs.Hardlink(ctx, en.src, en.dst, vfs.LinkOpts{Force: in.Force})
		}
		n, err = r.vfs.Copy(ctx, en.src, en.dst, vfs.CopyOpts{Force: in.Force, Follow: in.Follow})
		return err
	})
	if err != nil {
		return 0, err
	}

	// A cut source entry is only removed after its copy succeeded.
	if in.Verb == model.FileVerbCut {
		err := r.retry(ctx, b.e, en.src, func() error {
			return r.vfs.Remove(ctx, en.src, vfs.RemoveOpts{Permanently: true})
		})
		if err != nil {
			return 0, fmt.Errorf("copied but could not remove source: %w", err)
		}
	}

	return n, nil
}

// prune removes the source directories a cut left empty, deepest first.
// Directories that still have content are kept.
func (r *Runner) prune(ctx context.Context, ents []entry) {
	logger := r.logger.WithCtxValues(ctx)
	for i := len(ents) - 1; i >= 0; i-- {
		if !ents[i].dir || ents[i].err != nil {
			continue
		}

		err := r.vfs.Remove(ctx, ents[i].src, vfs.RemoveOpts{Permanently: true})
		// ENOTEMPTY matches fs.ErrExist.
		if err != nil && !errors.Is(err, fs.ErrExist) {
			logger.Debugf("Could not prune source directory %q: %s", ents[i].src, err)
		}
	}
}

func (r *Runner) remove(ctx context.Context, in model.FileOpIn, b *batch, opts RunOpts) error {
	for _, src := range in.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			ok  bool
			err error
		)
		if in.Permanently {
			ok, err = r.removeTree(ctx, src, b)
		} else {
			b.found(0)
			rerr := r.retry(ctx, b.e, src, func() error { return r.vfs.Remove(ctx, src, vfs.RemoveOpts{}) })
			if errors.Is(rerr, context.Canceled) {
				return rerr
			}
			b.processed(src, 0, rerr)
			ok = rerr == nil
		}
		if err != nil {
			return err
		}

		if ok && opts.OnEntry != nil {
			opts.OnEntry(src)
		}
	}

	return b.err()
}

func (r *Runner) removeTree(ctx context.Context, src string, b *batch) (bool, error) {
	info, err := r.vfs.Stat(ctx, src, false)
	if err != nil {
		return r.failOne(b, src, err)
	}

	ents, err := r.collect(ctx, src, "", info, false, b.foundEntry)
	if err != nil {
		return false, err
	}

	ok := true
	for _, en := range ents {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if en.dir && en.err == nil {
			continue
		}
		if en.err != nil {
			b.processed(en.src, 0, en.err)
			ok = false
			continue
		}

		err := r.retry(ctx, b.e, en.src, func() error {
			return r.vfs.Remove(ctx, en.src, vfs.RemoveOpts{Permanently: true})
		})
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		b.processed(en.src, en.size, err)
		ok = ok && err == nil
	}

	// Directories, deepest first.
	for i := len(ents) - 1; i >= 0; i-- {
		en := ents[i]
		if !en.dir || en.err != nil {
			continue
		}
		if err := r.vfs.Remove(ctx, en.src, vfs.RemoveOpts{Permanently: true}); err != nil {
			if errors.Is(err, context.Canceled) {
				return false, err
			}
			if ok {
				// Only report when the content was removed, otherwise it's expected.
				b.found(0)
				b.processed(en.src, 0, err)
				ok = false
			}
		}
	}

	return ok, nil
}

func (r *Runner) failOne(b *batch, src string, err error) (bool, error) {
	if errors.Is(err, context.Canceled) {
		return false, err
	}
	b.found(0)
	b.processed(src, 0, err)
	return false, nil
}
