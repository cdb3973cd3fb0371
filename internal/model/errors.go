package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrPermission is returned when an operation is not permitted.
	ErrPermission = errors.New("permission denied")
	// ErrTransient is returned for failures that may succeed if retried.
	ErrTransient = errors.New("transient failure")
	// ErrNotSupported is returned when a backend can't perform an operation.
	ErrNotSupported = errors.New("not supported")
	// ErrPoolStopped is returned when submitting work after shutdown.
	ErrPoolStopped = errors.New("pool stopped")
)

// IsRetryable returns true if the error is classified as transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
