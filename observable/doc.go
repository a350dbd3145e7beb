// Package observable provides mutation-instrumented list and dict containers
// for dispatch properties.
//
// A container is created by wrapping a raw slice or map. Wrapping is
// recursive: nested slices and maps become nested containers, each holding a
// back-reference to its structural parent. The back-reference is a
// notification path only - it confers no ownership and must never be used to
// extend a container's lifetime.
//
// Every mutating operation performs the underlying change, then walks the
// parent chain to the root and reports the full top-level value through the
// Root interface. Mutation always notifies; there is no equality suppression
// on this path.
//
// Containers assume the cooperative single-goroutine usage of their owning
// dispatcher instance. Concurrent mutation from parallel goroutines must be
// serialized by the caller.
package observable
