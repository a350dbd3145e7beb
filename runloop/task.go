package runloop

import (
	"context"
	"time"
)

// Func is a task body executed on a loop's goroutine.
type Func func(ctx context.Context) error

// Task is a handle to one scheduled callback invocation. It completes when
// the body has run (successfully, with an error, or after a panic) or when
// the loop drops it during shutdown.
type Task struct {
	id       string
	ctx      context.Context
	fn       Func
	done     chan struct{}
	err      error
	duration time.Duration
}

// ID returns the task's unique identifier.
func (t *Task) ID() string {
	return t.id
}

// Done returns a channel closed when the task has completed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's result. It must only be called after Done is
// closed. A recovered panic is reported as an error wrapping ErrTaskPanicked.
func (t *Task) Err() error {
	return t.err
}

// Duration returns the task's execution time. Valid once Done is closed.
func (t *Task) Duration() time.Duration {
	return t.duration
}

// Wait blocks until the task completes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
