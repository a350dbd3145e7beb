// Package dispatch provides in-process events and observable properties.
//
// Objects declare named events and change-detected properties through a
// Manifest; other objects subscribe callbacks to them; state changes and
// explicit signals are delivered synchronously - or scheduled on an
// execution context - without either side keeping the other alive. It is a
// single-process, best-effort, fire-and-forget notification mechanism:
// no queues, no replay, no cross-process delivery.
//
// # Architecture
//
//	┌───────────────────────────────────────────────┐
//	│                  Dispatcher                   │
//	│  - per-instance event table (lazy)            │
//	│  - property value cells                       │
//	│  - bind / unbind / emit routing               │
//	└───────────────────────────────────────────────┘
//	        │                  │                │
//	        ▼                  ▼                ▼
//	┌──────────────┐   ┌──────────────┐   ┌──────────────┐
//	│    Event     │   │   Property   │   │   runloop    │
//	│  - ordered   │   │  - equality  │   │  - serial    │
//	│    bindings  │   │    gate      │   │    task      │
//	│  - waiters   │   │  - observable│   │    loops     │
//	│    (Next)    │   │    containers│   │  - ambient   │
//	└──────────────┘   └──────────────┘   └──────────────┘
//
// # Declaring events and properties
//
// A Manifest is composed once per type, at startup. Base manifests merge the
// way base classes would; a name declared as both an event and a property is
// rejected eagerly:
//
//	var manifest = dispatch.MustManifest(
//	    dispatch.WithEvents("on_connect", "on_close"),
//	    dispatch.WithProperties(
//	        dispatch.NewIntProperty("value", 0),
//	        dispatch.NewListProperty("tags", nil),
//	    ),
//	)
//
//	d := dispatch.New(manifest)
//
// # Binding and emitting
//
//	err := d.Bind(
//	    dispatch.On("on_connect", dispatch.Func(onConnect)),
//	    dispatch.On("value", dispatch.Owned(listener, (*Listener).OnValue)),
//	)
//
//	stopped, err := d.Emit(ctx, "on_connect", addr)
//
// Synchronous callbacks run inline, in bind order. Returning Stop from a
// callback halts delivery to the remaining synchronous subscribers; the
// emitting call reports that propagation stopped. Binding the same callback
// to the same event twice is a no-op.
//
// Targets built with Owned hold the receiver weakly: once the owner is
// collected, its bindings turn dead and are pruned on the next emission. No
// explicit unbind is required, and emitting to dead bindings is never an
// error.
//
// # Properties
//
// Setting a property funnels through an equality gate: assigning an equal
// value is a silent no-op, a different value is validated, stored, and
// emitted as the property's namesake event with (instance, value) arguments
// plus "old" and "property" fields.
//
//	d.Set(ctx, "value", 1) // emits
//	d.Set(ctx, "value", 1) // no-op
//
// List and dict properties store observable containers. In-place mutation
// anywhere in the nested structure re-emits the property with the full
// top-level value - mutation always emits, unlike reassignment:
//
//	tags, _ := d.Get("tags")
//	tags.(*observable.List).Append("x") // emits with the whole list
//
// # Asynchronous delivery
//
// BindAsync associates callbacks with a runloop.Loop. Emission submits a
// task instead of calling inline and never waits for it; a nil loop infers
// the single running ambient loop or fails. Propagation-stop applies only to
// synchronous subscribers and does not cancel scheduled tasks.
//
// An Event is also a restartable awaitable: Next suspends the caller until
// the following emission, and successive calls observe successive emissions.
//
//	ev, _ := d.EventFor("on_connect")
//	e, err := ev.Next(ctx) // resumes on the next emission
//
// A Tracker retains the tasks scheduled during its scope so callers can wait
// for them in bulk; a Hold suppresses emissions of one name and replays the
// most recent on release.
//
// # Thread safety
//
// The dispatcher's tables are safe for concurrent access, and loops are safe
// to submit to from any goroutine. Emission ordering on a single instance
// assumes cooperative single-goroutine usage; parallel emitters must be
// serialized by the caller.
//
// # Subpackages
//
//   - observable: mutation-instrumented list/dict containers
//   - runloop: serial task loops (execution contexts) and ambient inference
package dispatch
