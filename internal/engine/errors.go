package engine

import (
	"context"
	"errors"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

// ErrorKind classifies a failed job for the consumer.
type ErrorKind uint8

const (
	// ErrBackend covers everything the repository backend itself
	// reports: corruption, missing objects, permission problems.
	ErrBackend ErrorKind = iota
	// ErrCancelled marks cooperative cancellation. Internal only; the
	// result is dropped, the consumer never sees it as an error.
	ErrCancelled
	// ErrTimeout marks a network operation that exceeded its deadline.
	ErrTimeout
	// ErrCredentialsRequired means the remote wants authentication and
	// no credentials callback was available.
	ErrCredentialsRequired
	// ErrCredentialsRejected means the remote refused the credentials
	// it was given.
	ErrCredentialsRejected
	// ErrBusy marks a collision on the exclusive backend scope.
	// Internal only; the worker waits and retries instead of surfacing
	// it.
	ErrBusy
)

func (e ErrorKind) String() string {
	switch e {
	case ErrBackend:
		return "backend failure"
	case ErrCancelled:
		return "cancelled"
	case ErrTimeout:
		return "timeout"
	case ErrCredentialsRequired:
		return "credentials required"
	case ErrCredentialsRejected:
		return "credentials rejected"
	case ErrBusy:
		return "busy"
	}
	return "unknown"
}

// surfaces reports whether the kind reaches the consumer as a Failed
// event. Cancelled and Busy only ever show up as the absence of a
// fresher result.
func (e ErrorKind) surfaces() bool {
	return e != ErrCancelled && e != ErrBusy
}

// classify maps a worker error onto an ErrorKind. The job context is
// consulted because backends differ in how faithfully they wrap
// context errors.
func classify(ctx context.Context, err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return ErrCancelled
	case errors.Is(err, gitx.ErrCredentialsRequired):
		return ErrCredentialsRequired
	case errors.Is(err, gitx.ErrCredentialsRejected):
		return ErrCredentialsRejected
	default:
		return ErrBackend
	}
}
