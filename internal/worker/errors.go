package worker

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError indicates a worker did not respond within the configured
// timeout. It unwraps to context.DeadlineExceeded so callers can use
// errors.Is.
type TimeoutError struct {
	Timeout time.Duration
	Worker  string
}

// NewTimeoutError creates a TimeoutError for a worker invocation.
func NewTimeoutError(timeout time.Duration, workerName string) *TimeoutError {
	return &TimeoutError{Timeout: timeout, Worker: workerName}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("worker %q timed out after %s (hint: increase timeout in config)", e.Worker, e.Timeout)
}

// Unwrap returns context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// MalformedResponseError indicates a worker replied with something that is
// not a valid response payload.
type MalformedResponseError struct {
	Worker string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("worker %q returned a malformed response: %s", e.Worker, e.Reason)
}

// InvocationError wraps a worker process failure (spawn error, crash,
// non-zero exit without a valid response).
type InvocationError struct {
	Worker string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoking worker %q: %v", e.Worker, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
