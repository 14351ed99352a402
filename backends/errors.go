package backends

import (
	"errors"
	"fmt"
)

// Common resolution and backend errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrCrossBackend      = errors.New("cross-backend operation not supported")
	ErrBackendIO         = errors.New("backend i/o failure")
	ErrIsDirectory       = errors.New("is a directory")
	ErrNotFound          = errors.New("not found")
	ErrNotSupported      = errors.New("operation not supported")
)

// Error records a failed backend operation with the URI it targeted.
// Every Error matches ErrBackendIO under errors.Is.
type Error struct {
	Op  string
	URI string
	Err error
}

// NewError wraps err as a backend failure of op on uri.
func NewError(op, uri string, err error) *Error {
	return &Error{Op: op, URI: uri, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URI, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackendIO) true for every backend error.
func (e *Error) Is(target error) bool {
	return target == ErrBackendIO
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
