package dispatch

import (
	"context"
	"sync"

	"github.com/nocarryr/go-dispatch/runloop"
)

// The package-level default dispatcher. It carries no manifest; events are
// registered at runtime with RegisterEvents. Useful for application-wide
// signals that do not belong to a particular instance.
var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// Default returns the shared package-level dispatcher, creating it on first
// use.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = New(nil)
	})
	return defaultDispatcher
}

// RegisterEvents registers event names on the default dispatcher.
func RegisterEvents(names ...string) error {
	return Default().RegisterEvents(names...)
}

// Bind subscribes callbacks on the default dispatcher.
func Bind(bindings ...Binding) error {
	return Default().Bind(bindings...)
}

// BindAsync subscribes asynchronous callbacks on the default dispatcher.
func BindAsync(loop *runloop.Loop, bindings ...Binding) error {
	return Default().BindAsync(loop, bindings...)
}

// Unbind removes bindings from the default dispatcher.
func Unbind(selectors ...Target) {
	Default().Unbind(selectors...)
}

// Emit fires an event on the default dispatcher.
func Emit(ctx context.Context, name string, args ...any) (bool, error) {
	return Default().Emit(ctx, name, args...)
}

// EmitWith fires an event with named arguments on the default dispatcher.
func EmitWith(ctx context.Context, name string, fields Fields, args ...any) (bool, error) {
	return Default().EmitWith(ctx, name, fields, args...)
}

// EventFor returns an awaitable Event from the default dispatcher.
func EventFor(name string) (*Event, error) {
	return Default().EventFor(name)
}
