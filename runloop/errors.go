package runloop

import "errors"

// Sentinel errors for loop lifecycle and ambient resolution.
var (
	// ErrNotRunning is returned when tasks are submitted to a stopped loop.
	ErrNotRunning = errors.New("loop is not running")

	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("loop is already running")

	// ErrQueueFull is returned when the task queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrTaskPanicked marks a task error caused by a recovered panic.
	ErrTaskPanicked = errors.New("task panicked")

	// ErrNoLoop is returned by Ambient when no loop is running.
	ErrNoLoop = errors.New("no running loop to bind to")

	// ErrAmbiguousLoop is returned by Ambient when more than one loop is
	// running and the execution context cannot be inferred.
	ErrAmbiguousLoop = errors.New("multiple running loops, execution context is ambiguous")
)
