package task

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/slok/fmsched/internal/model"
)

// entry is a single file system entry of a batch.
type entry struct {
	src  string
	dst  string
	dir  bool
	size int64
	mode fs.FileMode
	// err is set when the entry could not be read.
	err error
}

// countable is true for the entries that are processed one by one, readable
// directories are only containers.
func (e entry) countable() bool { return !e.dir || e.err != nil }

// collect walks src in pre-order (directories come before their content) mapping
// every entry to its place under dst. onFound is called with every countable
// entry as soon as it's discovered. Unreadable entries are returned with their
// error so the batch can count them, only cancellation aborts the walk.
//
// A directory reached again through one of its own descendants (a followed
// symlink to an ancestor) is a filesystem loop and is not entered.
func (r *Runner) collect(ctx context.Context, src, dst string, info fs.FileInfo, follow bool, onFound func(entry)) ([]entry, error) {
	var ents []entry
	add := func(e entry) {
		ents = append(ents, e)
		if e.countable() {
			onFound(e)
		}
	}

	ancestors := map[fileID]bool{}

	var walk func(src, dst string, info fs.FileInfo) error
	walk = func(src, dst string, info fs.FileInfo) error {
		ent := entry{src: src, dst: dst, dir: info.IsDir(), size: info.Size(), mode: info.Mode()}
		if !ent.mode.IsRegular() {
			ent.size = 0
		}
		if !ent.dir {
			add(ent)
			return nil
		}

		// Checkpoint.
		if err := ctx.Err(); err != nil {
			return err
		}

		id, ok := fileIDOf(info)
		if ok && ancestors[id] {
			ent.err = fmt.Errorf("filesystem loop: %w", model.ErrNotValid)
			add(ent)
			return nil
		}

		children, err := r.vfs.ReadDir(ctx, src)
		if err != nil {
			ent.err = err
			add(ent)
			return nil
		}
		add(ent)

		if ok {
			ancestors[id] = true
			defer delete(ancestors, id)
		}

		for _, c := range children {
			csrc, cdst := filepath.Join(src, c.Name()), filepath.Join(dst, c.Name())
			if follow && c.Mode()&fs.ModeSymlink != 0 {
				target, err := r.vfs.Stat(ctx, csrc, true)
				if err != nil {
					add(entry{src: csrc, dst: cdst, err: err})
					continue
				}
				c = target
			}

			if err := walk(csrc, cdst, c); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(src, dst, info); err != nil {
		return nil, err
	}

	return ents, nil
}
