package dispatch

import (
	"context"
	"sync"

	"github.com/nocarryr/go-dispatch/runloop"
)

// Tracker is a scoped aggregator of the asynchronous tasks spawned by
// emissions. While open, it retains every task scheduled for its watched
// events so the caller can wait for completion in bulk; outside a tracker
// scope scheduled tasks are fire-and-forget.
//
//	tr, err := dispatch.NewTracker(d, "on_progress")
//	if err != nil { ... }
//	defer tr.Close()
//
//	d.Emit(ctx, "on_progress", 1)
//	d.Emit(ctx, "on_progress", 2)
//	if err := tr.WaitAll(ctx); err != nil { ... }
//
// Waiting has no built-in timeout; callers impose their own through ctx.
type Tracker struct {
	d     *Dispatcher
	names map[string]struct{}

	mu     sync.Mutex
	tasks  map[string][]*runloop.Task
	closed bool
}

// NewTracker opens a tracker on d for the given event or property names.
// With no names it watches every event. Unknown names fail with
// DoesNotExistError and nothing is opened.
func NewTracker(d *Dispatcher, names ...string) (*Tracker, error) {
	d.mu.RLock()
	for _, name := range names {
		if !d.known(name) {
			d.mu.RUnlock()
			return nil, &DoesNotExistError{Name: name}
		}
	}
	d.mu.RUnlock()

	t := &Tracker{
		d:     d,
		names: make(map[string]struct{}, len(names)),
		tasks: make(map[string][]*runloop.Task),
	}
	for _, name := range names {
		t.names[name] = struct{}{}
	}
	d.addTracker(t)
	return t, nil
}

// add retains a task scheduled by an emission of name, if watched.
func (t *Tracker) add(name string, task *runloop.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if len(t.names) > 0 {
		if _, ok := t.names[name]; !ok {
			return
		}
	}
	t.tasks[name] = append(t.tasks[name], task)
}

// Pending returns the number of tasks retained for name so far.
func (t *Tracker) Pending(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks[name])
}

// Wait suspends until every task retained for name has completed, or ctx is
// cancelled. Task errors do not fail the wait; they stay on their loops.
func (t *Tracker) Wait(ctx context.Context, name string) error {
	t.mu.Lock()
	tasks := make([]*runloop.Task, len(t.tasks[name]))
	copy(tasks, t.tasks[name])
	t.mu.Unlock()

	return waitTasks(ctx, tasks)
}

// WaitAll suspends until every retained task has completed, or ctx is
// cancelled.
func (t *Tracker) WaitAll(ctx context.Context) error {
	t.mu.Lock()
	var tasks []*runloop.Task
	for _, ts := range t.tasks {
		tasks = append(tasks, ts...)
	}
	t.mu.Unlock()

	return waitTasks(ctx, tasks)
}

// waitTasks waits for each task's done channel in turn.
func waitTasks(ctx context.Context, tasks []*runloop.Task) error {
	for _, task := range tasks {
		select {
		case <-task.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close ends the scope. Emissions after Close are no longer tracked;
// already-retained tasks can still be waited on.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.d.removeTracker(t)
}
