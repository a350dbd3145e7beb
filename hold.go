package dispatch

import (
	"context"
	"sync"
)

// holdState is the per-name hold slot. The semaphore serializes holders;
// capture runs on the emit path.
type holdState struct {
	sem chan struct{}

	mu     sync.Mutex
	active bool
	last   *Emission
}

// capture intercepts an emission while the hold is active, retaining only
// the most recent one. Reports whether the emission was captured.
func (hs *holdState) capture(e Emission) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if !hs.active {
		return false
	}
	hs.last = &e
	return true
}

// holdState returns the hold slot for name, creating it when create is set.
func (d *Dispatcher) holdState(name string, create bool) *holdState {
	d.mu.Lock()
	defer d.mu.Unlock()
	hs, ok := d.holds[name]
	if !ok && create {
		hs = &holdState{sem: make(chan struct{}, 1)}
		d.holds[name] = hs
	}
	return hs
}

// Hold suppresses delivery of one event while held. Emissions during the
// hold are captured, keeping only the most recent; Release replays it as a
// single emission. Concurrent holders of the same name are serialized:
// Hold blocks until the slot is free or ctx is cancelled.
//
//	h, err := d.Hold(ctx, "on_progress")
//	if err != nil { ... }
//	for i := 0; i < 100; i++ {
//	    d.Emit(ctx, "on_progress", i) // captured, not delivered
//	}
//	h.Release(ctx) // delivers once, with 99
func (d *Dispatcher) Hold(ctx context.Context, name string) (*Hold, error) {
	d.mu.RLock()
	known := d.known(name)
	d.mu.RUnlock()
	if !known {
		return nil, &DoesNotExistError{Name: name}
	}

	hs := d.holdState(name, true)

	select {
	case hs.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	hs.mu.Lock()
	hs.active = true
	hs.last = nil
	hs.mu.Unlock()

	return &Hold{d: d, name: name, hs: hs}, nil
}

// Hold represents one acquired emission hold. It must be released exactly
// once.
type Hold struct {
	d        *Dispatcher
	name     string
	hs       *holdState
	released bool
}

// Release replays the most recent captured emission, if any, and frees the
// hold slot for the next holder. Releasing twice is a no-op.
func (h *Hold) Release(ctx context.Context) error {
	if h.released {
		return nil
	}
	h.released = true

	h.hs.mu.Lock()
	h.hs.active = false
	last := h.hs.last
	h.hs.last = nil
	h.hs.mu.Unlock()

	var err error
	if last != nil {
		_, err = h.d.EmitWith(ctx, h.name, last.Fields, last.Args...)
	}

	<-h.hs.sem
	return err
}
