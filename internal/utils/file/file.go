// Package file provides file copy helpers that keep sparse files sparse.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrSparseUnsupported is returned when the filesystem or kernel does not support
// SEEK_DATA/SEEK_HOLE for sparse-aware file copying.
var ErrSparseUnsupported = errors.New("sparse copy not supported")

// CopyOpts are the options of Copy.
type CopyOpts struct {
	// Overwrite truncates an existing destination instead of failing.
	Overwrite bool
	// OnProgress is called with the number of bytes written on every chunk.
	OnProgress func(n int64)
}

const chunkSize = 1024 * 1024

// Copy copies the regular file src into dst keeping the permission bits and
// the modification time. Data extents are copied sparse when possible.
// Returns the size of the copied file.
func Copy(ctx context.Context, src, dst string, opts CopyOpts) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%q is not a regular file", src)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dst, flags, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	err = copySparse(ctx, in, out, info.Size(), opts.OnProgress)
	if errors.Is(err, ErrSparseUnsupported) {
		err = copyStream(ctx, in, out, opts.OnProgress)
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing destination: %w", err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return 0, err
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())

	return info.Size(), nil
}

func copyStream(ctx context.Context, src, dst *os.File, onProgress func(int64)) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
