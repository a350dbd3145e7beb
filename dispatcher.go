package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nocarryr/go-dispatch/runloop"
)

// Dispatcher owns the live event and property state for one emitting
// instance. Embed it in (or attach it to) any type that declares events:
//
//	var counterManifest = dispatch.MustManifest(
//	    dispatch.WithProperties(dispatch.NewIntProperty("value", 0)),
//	    dispatch.WithEvents("on_reset"),
//	)
//
//	type Counter struct {
//	    *dispatch.Dispatcher
//	}
//
//	func NewCounter() *Counter {
//	    c := &Counter{}
//	    c.Dispatcher = dispatch.New(counterManifest, dispatch.WithSelf(c))
//	    return c
//	}
//
// The declaration manifest is shared per type; everything on the Dispatcher
// itself is instance state. Events are instantiated lazily on first bind or
// emit. Methods are safe for concurrent table access, but emission ordering
// across parallel goroutines on one instance is the caller's responsibility.
type Dispatcher struct {
	manifest *Manifest
	self     any
	log      zerolog.Logger

	mu         sync.RWMutex
	events     map[string]*Event
	registered map[string]struct{}
	cells      map[string]*propertyCell
	trackers   []*Tracker
	holds      map[string]*holdState

	// Stats
	emitted   atomic.Uint64
	delivered atomic.Uint64
	stopped   atomic.Uint64
	scheduled atomic.Uint64
	pruned    atomic.Uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for ignored callback errors and dropped
// async tasks.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithSelf sets the instance passed as Args[0] of property-change emissions.
// Defaults to the Dispatcher itself; embedding types set it to the embedder
// so subscribers receive the outer instance.
func WithSelf(self any) Option {
	return func(d *Dispatcher) {
		d.self = self
	}
}

// New creates a dispatcher instance for the given manifest. A nil manifest
// declares nothing; events can still be registered at runtime. Property
// value cells are initialized from structurally copied defaults, so
// container defaults are never shared between instances.
func New(m *Manifest, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		manifest:   m,
		log:        zerolog.Nop(),
		events:     make(map[string]*Event),
		registered: make(map[string]struct{}),
		cells:      make(map[string]*propertyCell),
		holds:      make(map[string]*holdState),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.self == nil {
		d.self = d
	}

	if m != nil {
		for name, prop := range m.props {
			cell := &propertyCell{d: d, prop: prop}
			if cp, ok := prop.(containerProperty); ok {
				// A fresh wrap of the default; wrap errors cannot occur for
				// the declared default types.
				v, err := cp.wrapValue(prop.Default(), cell)
				if err == nil {
					cell.value = v
				}
			} else {
				cell.value = prop.Default()
			}
			d.cells[name] = cell
		}
	}

	return d
}

// Manifest returns the declaration manifest, or nil.
func (d *Dispatcher) Manifest() *Manifest {
	return d.manifest
}

// Self returns the emitting instance used in property-change emissions.
func (d *Dispatcher) Self() any {
	return d.self
}

// known reports whether name resolves to a declared event, a runtime
// registered event, or a property.
func (d *Dispatcher) known(name string) bool {
	if d.manifest != nil {
		if d.manifest.HasEvent(name) {
			return true
		}
		if _, ok := d.manifest.Property(name); ok {
			return true
		}
	}
	_, ok := d.registered[name]
	return ok
}

// eventForLocked resolves or lazily creates the event for name.
// d.mu must be held for writing.
func (d *Dispatcher) eventForLocked(name string) (*Event, error) {
	if ev, ok := d.events[name]; ok {
		return ev, nil
	}
	if !d.known(name) {
		return nil, &DoesNotExistError{Name: name}
	}
	ev := newEvent(d, name)
	d.events[name] = ev
	return ev, nil
}

// EventFor returns the Event object for a declared event or property name.
// The returned event doubles as a restartable awaitable; see Event.Next.
func (d *Dispatcher) EventFor(name string) (*Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eventForLocked(name)
}

// RegisterEvents adds event names to this instance's registry. Registering
// an existing event name is idempotent; a name declared as a property fails
// with PropertyExistsError. The call is all-or-nothing.
func (d *Dispatcher) RegisterEvents(names ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range names {
		if d.manifest != nil {
			if _, ok := d.manifest.Property(name); ok {
				return &PropertyExistsError{Name: name}
			}
		}
	}
	for _, name := range names {
		d.registered[name] = struct{}{}
	}
	return nil
}

// Bind subscribes callbacks to events or properties, in order. Unknown
// names fail with DoesNotExistError and invalid targets with ErrNilCallback;
// in either case no binding of the call takes effect. Binding a callback
// already bound to the same event is a no-op.
func (d *Dispatcher) Bind(bindings ...Binding) error {
	return d.bindAll(nil, bindings)
}

// BindAsync subscribes callbacks whose invocations are scheduled on loop
// instead of running inline during Emit. A nil loop infers the ambient
// execution context; inference fails with runloop.ErrNoLoop or
// runloop.ErrAmbiguousLoop rather than guessing.
func (d *Dispatcher) BindAsync(loop *runloop.Loop, bindings ...Binding) error {
	if loop == nil {
		var err error
		loop, err = runloop.Ambient()
		if err != nil {
			return err
		}
	}
	return d.bindAll(loop, bindings)
}

// bindAll validates every binding, then applies them in order.
func (d *Dispatcher) bindAll(loop *runloop.Loop, bindings []Binding) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range bindings {
		if !d.known(b.Event) {
			return &DoesNotExistError{Name: b.Event}
		}
		if !b.Target.valid() {
			return ErrNilCallback
		}
	}
	for _, b := range bindings {
		ev, err := d.eventForLocked(b.Event)
		if err != nil {
			return err
		}
		ev.bind(b.Target, loop)
	}
	return nil
}

// Unbind removes every binding selected by the given targets across all of
// the instance's events. Selectors may be the original targets or Owner
// selectors matching every method bound to one owner. Unbinding does not
// cancel tasks already scheduled. No-op when nothing matches.
func (d *Dispatcher) Unbind(selectors ...Target) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ev := range d.events {
		for _, sel := range selectors {
			ev.unbind(sel)
		}
	}
}

// Emit fires the named event with positional arguments. Synchronous
// subscribers run inline in bind order; the returned bool reports whether
// one of them stopped propagation. Asynchronous subscribers are scheduled on
// their loops and never awaited. Fails with DoesNotExistError for
// unregistered names.
func (d *Dispatcher) Emit(ctx context.Context, name string, args ...any) (bool, error) {
	return d.EmitWith(ctx, name, nil, args...)
}

// EmitWith is Emit with named arguments attached to the emission.
func (d *Dispatcher) EmitWith(ctx context.Context, name string, fields Fields, args ...any) (bool, error) {
	d.mu.Lock()
	ev, err := d.eventForLocked(name)
	d.mu.Unlock()
	if err != nil {
		return false, err
	}

	e := Emission{Event: name, Args: args, Fields: fields}

	if hs := d.holdState(name, false); hs != nil && hs.capture(e) {
		return false, nil
	}

	d.emitted.Add(1)
	return ev.emit(ctx, e), nil
}

// emitPropertyChange fires a property's implicit event with the
// (instance, value) convention and old/property metadata fields.
func (d *Dispatcher) emitPropertyChange(ctx context.Context, prop Property, old, value any) error {
	_, err := d.EmitWith(ctx, prop.Name(),
		Fields{"old": old, "property": prop},
		d.self, value)
	return err
}

// Get returns the current value of a property. Container properties return
// their observable wrapper, which can be mutated in place to emit.
func (d *Dispatcher) Get(name string) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cell, ok := d.cells[name]
	if !ok {
		if d.known(name) {
			return nil, ErrNotProperty
		}
		return nil, &DoesNotExistError{Name: name}
	}
	return cell.value, nil
}

// Set assigns a property value through the equality-gate-then-emit contract:
// an equal value is a silent no-op; a different value is validated, stored,
// and emitted as the property's event. Container values are wrapped into
// observables before the comparison.
func (d *Dispatcher) Set(ctx context.Context, name string, value any) error {
	d.mu.Lock()
	cell, ok := d.cells[name]
	if !ok {
		known := d.known(name)
		d.mu.Unlock()
		if known {
			return ErrNotProperty
		}
		return &DoesNotExistError{Name: name}
	}

	prop := cell.prop
	if cp, ok := prop.(containerProperty); ok {
		wrapped, err := cp.wrapValue(value, cell)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		value = wrapped
	}

	if prop.Equal(cell.value, value) {
		d.mu.Unlock()
		return nil
	}
	if err := prop.Validate(value); err != nil {
		d.mu.Unlock()
		return &ValidationError{Property: name, Value: value, Err: err}
	}

	old := cell.value
	cell.value = value
	d.mu.Unlock()

	return d.emitPropertyChange(ctx, prop, old, value)
}

// addTracker registers an open completion tracker.
func (d *Dispatcher) addTracker(t *Tracker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trackers = append(d.trackers, t)
}

// removeTracker unregisters a closed tracker.
func (d *Dispatcher) removeTracker(t *Tracker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, tr := range d.trackers {
		if tr == t {
			d.trackers = append(d.trackers[:i], d.trackers[i+1:]...)
			return
		}
	}
}

// offerTask hands a freshly scheduled task to every open tracker watching
// the event. Outside any tracker scope tasks are fire-and-forget.
func (d *Dispatcher) offerTask(name string, task *runloop.Task) {
	d.mu.RLock()
	trackers := make([]*Tracker, len(d.trackers))
	copy(trackers, d.trackers)
	d.mu.RUnlock()

	for _, t := range trackers {
		t.add(name, task)
	}
}

// Stats contains dispatcher counters.
type Stats struct {
	// Emitted is the number of Emit calls that resolved an event.
	Emitted uint64

	// Delivered is the number of synchronous callback invocations.
	Delivered uint64

	// Stopped is the number of emissions halted by a Stop return.
	Stopped uint64

	// Scheduled is the number of tasks submitted to loops.
	Scheduled uint64

	// Pruned is the number of dead bindings removed during emission.
	Pruned uint64
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Emitted:   d.emitted.Load(),
		Delivered: d.delivered.Load(),
		Stopped:   d.stopped.Load(),
		Scheduled: d.scheduled.Load(),
		Pruned:    d.pruned.Load(),
	}
}
