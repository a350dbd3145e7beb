package runloop

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Loop executes submitted tasks serially on a dedicated goroutine.
// It provides bounded queuing and graceful shutdown.
type Loop struct {
	// Configuration
	queueSize int
	clock     clock.Clock
	log       zerolog.Logger

	// State
	mu      sync.Mutex // protects queue creation/destruction
	queue   chan *Task
	running atomic.Bool
	wg      sync.WaitGroup

	// Stats
	submitted   atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the task queue capacity.
func WithQueueSize(size int) Option {
	return func(l *Loop) {
		if size > 0 {
			l.queueSize = size
		}
	}
}

// WithClock replaces the wall clock, primarily for tests.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used for task failures and recovered panics.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

// New creates a loop with the given options. The loop must be started
// before it accepts tasks.
func New(opts ...Option) *Loop {
	l := &Loop{
		queueSize: 1024,
		clock:     clock.New(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start starts the worker goroutine and registers the loop as ambient.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}

	l.queue = make(chan *Task, l.queueSize)
	l.running.Store(true)

	l.wg.Add(1)
	go l.worker()

	registerAmbient(l)
	return nil
}

// Stop stops the loop gracefully. Queued tasks are drained; Stop returns
// once the worker has finished or ctx is cancelled.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}

	l.running.Store(false)
	unregisterAmbient(l)
	// Closing the queue signals the worker to drain and exit.
	close(l.queue)
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the loop accepts tasks.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Submit schedules fn on the loop and returns its task handle.
// It never blocks: a full queue returns ErrQueueFull and the task is
// dropped. The context is observed both before and during execution.
func (l *Loop) Submit(ctx context.Context, fn Func) (*Task, error) {
	if !l.running.Load() {
		return nil, ErrNotRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := &Task{
		id:   uuid.NewString(),
		ctx:  ctx,
		fn:   fn,
		done: make(chan struct{}),
	}

	select {
	case l.queue <- t:
		l.submitted.Add(1)
		return t, nil
	default:
		l.dropped.Add(1)
		return nil, ErrQueueFull
	}
}

// worker drains the queue until it is closed.
func (l *Loop) worker() {
	defer l.wg.Done()

	for t := range l.queue {
		l.run(t)
	}
}

// run executes a single task with panic recovery.
func (l *Loop) run(t *Task) {
	l.processed.Add(1)
	start := l.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			t.err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			l.log.Error().
				Str("task", t.id).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("task panicked")
		}
		t.duration = l.clock.Since(start)
		l.totalTimeNs.Add(t.duration.Nanoseconds())
		close(t.done)
	}()

	select {
	case <-t.ctx.Done():
		t.err = t.ctx.Err()
		l.failed.Add(1)
		return
	default:
	}

	t.err = t.fn(t.ctx)
	if t.err != nil {
		l.failed.Add(1)
		l.log.Debug().Str("task", t.id).Err(t.err).Msg("task failed")
		return
	}
	l.succeeded.Add(1)
}

// QueueDepth returns the number of tasks waiting in the queue.
// Returns 0 if the loop is not running.
func (l *Loop) QueueDepth() int {
	if !l.running.Load() {
		return 0
	}
	return len(l.queue)
}

// Stats contains loop counters.
type Stats struct {
	// Submitted is the total number of tasks accepted into the queue.
	Submitted uint64

	// Processed is the number of tasks that have been executed.
	Processed uint64

	// Succeeded is the number of tasks that completed without error.
	Succeeded uint64

	// Failed is the number of tasks that returned an error or were cancelled.
	Failed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks rejected because the queue was full.
	Dropped uint64

	// QueueDepth is the current number of waiting tasks.
	QueueDepth int

	// TotalDuration is the cumulative task execution time.
	TotalDuration time.Duration

	// AvgDuration is the average task execution time.
	AvgDuration time.Duration
}

// Stats returns a snapshot of the loop's counters.
func (l *Loop) Stats() Stats {
	processed := l.processed.Load()
	totalNs := l.totalTimeNs.Load()

	var avgNs int64
	if processed > 0 {
		avgNs = totalNs / int64(processed)
	}

	return Stats{
		Submitted:     l.submitted.Load(),
		Processed:     processed,
		Succeeded:     l.succeeded.Load(),
		Failed:        l.failed.Load(),
		Panicked:      l.panicked.Load(),
		Dropped:       l.dropped.Load(),
		QueueDepth:    l.QueueDepth(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}
