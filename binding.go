package dispatch

import (
	"context"
	"reflect"
	"weak"
)

// Callback is a subscriber function invoked for each emission. Returning Stop
// halts propagation to the remaining synchronous subscribers; any other
// non-nil error is logged and ignored.
type Callback func(ctx context.Context, e Emission) error

// bindingKey identifies a callback for bind idempotence and unbind matching.
// It is the Go analogue of a (function, owner) pair: the code pointer of the
// callback or method expression plus the owner's pointer identity.
type bindingKey struct {
	owner uintptr
	fn    uintptr
}

// Target is a resolvable reference to a callback. Targets built with Owned
// never keep the owning object alive; resolution fails once the owner has
// been collected.
type Target struct {
	key       bindingKey
	ownerOnly bool
	resolve   func() (Callback, bool)
}

// valid reports whether the target can be bound (selectors cannot).
func (t Target) valid() bool {
	return t.resolve != nil
}

// Func wraps a plain function as a binding target. The function is held
// strongly and stays bound until unbound explicitly.
func Func(cb Callback) Target {
	if cb == nil {
		return Target{}
	}
	return Target{
		key:     bindingKey{fn: reflect.ValueOf(cb).Pointer()},
		resolve: func() (Callback, bool) { return cb, true },
	}
}

// Keyed wraps a function with an explicit identity key. Distinct closures can
// share a code pointer, so Keyed is the reliable way to bind more than one
// closure created at the same call site, or to unbind a closure later without
// keeping a reference to it. A nil callback yields a pure selector usable
// only with Unbind.
func Keyed(key string, cb Callback) Target {
	t := Target{key: bindingKey{owner: stringKey(key)}}
	if cb != nil {
		t.resolve = func() (Callback, bool) { return cb, true }
	}
	return t
}

// Owned binds a method expression to its receiver without keeping the
// receiver alive. Once the owner is collected the binding turns dead and is
// pruned on the next emission; no explicit unbind is required.
//
//	d.Bind(dispatch.On("value", dispatch.Owned(listener, (*Listener).OnValue)))
func Owned[T any](owner *T, method func(*T, context.Context, Emission) error) Target {
	if owner == nil || method == nil {
		return Target{}
	}
	wp := weak.Make(owner)
	return Target{
		key: bindingKey{
			owner: reflect.ValueOf(owner).Pointer(),
			fn:    reflect.ValueOf(method).Pointer(),
		},
		resolve: func() (Callback, bool) {
			o := wp.Value()
			if o == nil {
				return nil, false
			}
			return func(ctx context.Context, e Emission) error {
				return method(o, ctx, e)
			}, true
		},
	}
}

// Owner creates an unbind selector matching every binding whose callback is a
// method owned by o. It cannot be bound itself.
func Owner[T any](o *T) Target {
	if o == nil {
		return Target{}
	}
	return Target{
		key:       bindingKey{owner: reflect.ValueOf(o).Pointer()},
		ownerOnly: true,
	}
}

// matches reports whether sel selects the binding identified by key.
func (t Target) matches(key bindingKey) bool {
	if t.ownerOnly {
		return t.key.owner != 0 && t.key.owner == key.owner
	}
	return t.key == key
}

// stringKey folds a string into a comparable identity slot (FNV-1a).
func stringKey(s string) uintptr {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return uintptr(h)
}

// Binding pairs an event or property name with a callback target.
type Binding struct {
	// Event is the declared event or property name.
	Event string

	// Target resolves the callback at emission time.
	Target Target
}

// On constructs a Binding for use with Bind and BindAsync.
func On(event string, target Target) Binding {
	return Binding{Event: event, Target: target}
}
