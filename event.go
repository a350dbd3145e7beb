package dispatch

import (
	"context"
	"errors"
	"slices"

	"github.com/nocarryr/go-dispatch/runloop"
)

// entry is one subscriber of an event. A nil loop means the callback runs
// inline during Emit; otherwise each emission submits a task to the loop.
type entry struct {
	target Target
	loop   *runloop.Loop
}

// Event is a named channel of emissions owned by exactly one dispatcher
// instance. Subscribers are kept in bind order; binding the same callback
// twice is a no-op. An Event is also a restartable awaitable: Next suspends
// the caller until the following emission.
//
// Events are created lazily on first bind or emit and live until their
// dispatcher is collected. Emitting with zero subscribers is a legal no-op.
type Event struct {
	name    string
	d       *Dispatcher
	entries []entry
	waiters []chan Emission
}

// newEvent creates an event owned by d.
func newEvent(d *Dispatcher, name string) *Event {
	return &Event{name: name, d: d}
}

// Name returns the event name.
func (ev *Event) Name() string {
	return ev.name
}

// bind appends a subscriber entry unless an entry with the same identity is
// already present. The dispatcher's table lock must be held.
func (ev *Event) bind(t Target, loop *runloop.Loop) {
	for _, en := range ev.entries {
		if en.target.key == t.key {
			return
		}
	}
	ev.entries = append(ev.entries, entry{target: t, loop: loop})
}

// unbind removes every entry selected by sel and returns the count removed.
// The dispatcher's table lock must be held.
func (ev *Event) unbind(sel Target) int {
	removed := 0
	kept := ev.entries[:0]
	for _, en := range ev.entries {
		if sel.matches(en.target.key) {
			removed++
			continue
		}
		kept = append(kept, en)
	}
	ev.entries = kept
	return removed
}

// subscriberCount returns the number of entries, live or dead.
// The dispatcher's table lock must be held.
func (ev *Event) subscriberCount() int {
	return len(ev.entries)
}

// emit delivers e to waiters and subscribers. Synchronous subscribers run
// inline in bind order until one returns Stop; asynchronous subscribers are
// submitted to their loop and never awaited. Dead entries found along the
// way are pruned. Returns true if propagation was stopped.
func (ev *Event) emit(ctx context.Context, e Emission) bool {
	ev.d.mu.Lock()
	waiters := ev.waiters
	ev.waiters = nil
	entries := slices.Clone(ev.entries)
	ev.d.mu.Unlock()

	// Waiters observe every emission, before and independent of the
	// subscriber walk; Stop does not apply to them.
	for _, ch := range waiters {
		ch <- e
	}

	var dead []bindingKey
	stopped := false

	for _, en := range entries {
		cb, alive := en.target.resolve()
		if !alive {
			dead = append(dead, en.target.key)
			continue
		}

		if en.loop != nil {
			task, err := en.loop.Submit(ctx, func(c context.Context) error {
				return cb(c, e)
			})
			if err != nil {
				ev.d.log.Warn().
					Str("event", ev.name).
					Err(err).
					Msg("async callback dropped")
				continue
			}
			ev.d.scheduled.Add(1)
			ev.d.offerTask(ev.name, task)
			continue
		}

		if err := cb(ctx, e); err != nil {
			if errors.Is(err, Stop) {
				ev.d.delivered.Add(1)
				ev.d.stopped.Add(1)
				stopped = true
				break
			}
			ev.d.log.Warn().
				Str("event", ev.name).
				Err(err).
				Msg("callback error ignored")
		}
		ev.d.delivered.Add(1)
	}

	if len(dead) > 0 {
		ev.pruneDead(dead)
	}

	return stopped
}

// pruneDead removes entries whose owners were collected. Routine cleanup,
// never an error.
func (ev *Event) pruneDead(dead []bindingKey) {
	ev.d.mu.Lock()
	defer ev.d.mu.Unlock()

	kept := ev.entries[:0]
	for _, en := range ev.entries {
		if slices.Contains(dead, en.target.key) {
			ev.d.pruned.Add(1)
			continue
		}
		kept = append(kept, en)
	}
	ev.entries = kept
}

// Next suspends the caller until the next emission of this event and
// returns its payload. Each call registers a fresh waiter against the next
// emission only: the event is a restartable notification source, not a
// single-shot future, and successive calls observe successive emissions.
func (ev *Event) Next(ctx context.Context) (Emission, error) {
	ch := make(chan Emission, 1)

	ev.d.mu.Lock()
	ev.waiters = append(ev.waiters, ch)
	ev.d.mu.Unlock()

	select {
	case e := <-ch:
		return e, nil
	case <-ctx.Done():
		ev.removeWaiter(ch)
		return Emission{}, ctx.Err()
	}
}

// removeWaiter drops an abandoned waiter channel.
func (ev *Event) removeWaiter(ch chan Emission) {
	ev.d.mu.Lock()
	defer ev.d.mu.Unlock()
	for i, w := range ev.waiters {
		if w == ch {
			ev.waiters = append(ev.waiters[:i], ev.waiters[i+1:]...)
			return
		}
	}
}
