package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// copySparse copies only the data extents of src using SEEK_DATA/SEEK_HOLE,
// holes stay holes in dst.
func copySparse(ctx context.Context, src, dst *os.File, size int64, onProgress func(int64)) error {
	if size == 0 {
		return nil
	}

	fd := int(src.Fd())
	if _, err := unix.Seek(fd, 0, unix.SEEK_DATA); err != nil {
		if isSeekDataUnsupported(err) {
			return fmt.Errorf("SEEK_DATA not supported: %w", ErrSparseUnsupported)
		}
		if errors.Is(err, syscall.ENXIO) {
			// All hole.
			return dst.Truncate(size)
		}
		return err
	}

	buf := make([]byte, chunkSize)
	for offset := int64(0); offset < size; {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := unix.Seek(fd, offset, unix.SEEK_DATA)
		if errors.Is(err, syscall.ENXIO) {
			break
		}
		if err != nil {
			return err
		}
		hole, err := unix.Seek(fd, data, unix.SEEK_HOLE)
		if err != nil {
			return err
		}
		hole = min(hole, size)

		if err := copyExtent(ctx, src, dst, data, hole-data, buf, onProgress); err != nil {
			return err
		}
		offset = hole
	}

	if err := dst.Truncate(size); err != nil {
		return fmt.Errorf("preserving sparse file virtual size: %w", err)
	}

	return nil
}

func copyExtent(ctx context.Context, src, dst *os.File, at, length int64, buf []byte, onProgress func(int64)) error {
	if _, err := src.Seek(at, io.SeekStart); err != nil {
		return fmt.Errorf("seeking source data extent: %w", err)
	}
	if _, err := dst.Seek(at, io.SeekStart); err != nil {
		return fmt.Errorf("seeking destination data extent: %w", err)
	}

	for length > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(src, buf[:min(int64(len(buf)), length)])
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			length -= int64(n)
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func isSeekDataUnsupported(err error) bool {
	return errors.Is(err, syscall.ENOSYS) ||
		errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP)
}
