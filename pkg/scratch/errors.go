package scratch

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Op names the step of a write run that failed.
type Op string

const (
	OpOpen  Op = "open"
	OpWrite Op = "write"
	OpFlush Op = "flush"
	OpClose Op = "close"
)

// IOError reports a failure to open, write, flush or close the scratch file.
type IOError struct {
	Op    Op
	Path  string
	Index int // value being written when Op is OpWrite, otherwise -1
	Err   error
}

func (e *IOError) Error() string {
	if e.Op == OpWrite {
		return fmt.Sprintf("%s %s at value %d: %v", e.Op, e.Path, e.Index, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// newIOError builds an IOError with a stack trace captured at the caller.
func newIOError(op Op, path string, index int, cause error) error {
	return errors.WithStackDepth(&IOError{Op: op, Path: path, Index: index, Err: cause}, 1)
}

var (
	// ErrTruncated means the content ended before the expected last value.
	ErrTruncated = errors.New("scratch content truncated")

	// ErrMismatch means a value did not parse back to its position in the sequence.
	ErrMismatch = errors.New("scratch content mismatch")

	// ErrTrailingData means bytes follow the expected last value.
	ErrTrailingData = errors.New("scratch content has trailing data")
)
