package vfs

import (
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"

	"github.com/slok/fmsched/internal/model"
)

var transientErrnos = []unix.Errno{
	unix.EAGAIN,
	unix.EBUSY,
	unix.EINTR,
	unix.ETIMEDOUT,
	unix.ETXTBSY,
	unix.EIO,
	unix.ENFILE,
	unix.EMFILE,
	unix.ESTALE,
}

// Classify wraps a backend error with the model error it belongs to, so callers can
// decide with errors.Is. Already classified and unknown errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, s := range []error{model.ErrTransient, model.ErrNotFound, model.ErrPermission, model.ErrAlreadyExists, model.ErrNotSupported} {
		if errors.Is(err, s) {
			return err
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", model.ErrPermission, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %w", model.ErrAlreadyExists, err)
	case errors.Is(err, unix.EXDEV):
		return fmt.Errorf("%w: %w", model.ErrNotSupported, err)
	}

	for _, e := range transientErrnos {
		if errors.Is(err, e) {
			return fmt.Errorf("%w: %w", model.ErrTransient, err)
		}
	}

	return err
}
