package observable

import (
	"fmt"
	"reflect"
)

// Root receives change notifications from the top of a container tree.
// It is implemented by the property value cell owning the tree.
type Root interface {
	// ContainerChanged is called after any mutation anywhere in the tree,
	// with the tree's top-level container.
	ContainerChanged(top any)
}

// parent links a nested container to its enclosing container.
type parent interface {
	childChanged()
}

// List is a mutation-instrumented slice. All mutating operations notify the
// owning property through the parent chain.
type List struct {
	items  []any
	parent parent
	root   Root
}

// NewList wraps raw into a new top-level observable list reporting to root.
// The contents are copied structurally; raw is not retained.
func NewList(raw []any, root Root) *List {
	l := &List{root: root}
	l.items = wrapItems(raw, l)
	return l
}

// newChildList wraps raw as a nested list under p.
func newChildList(raw []any, p parent) *List {
	l := &List{parent: p}
	l.items = wrapItems(raw, l)
	return l
}

// wrapItems wraps each element of raw with p as structural parent.
func wrapItems(raw []any, p parent) []any {
	if len(raw) == 0 {
		return nil
	}
	items := make([]any, len(raw))
	for i, v := range raw {
		items[i] = wrapValue(v, p)
	}
	return items
}

// wrapValue converts nested slices and maps into child containers.
// Re-assigned containers are rebuilt from their raw snapshot so a value can
// move between trees without keeping its old parent chain.
func wrapValue(v any, p parent) any {
	switch t := v.(type) {
	case []any:
		return newChildList(t, p)
	case map[string]any:
		return newChildDict(t, p)
	case *List:
		return newChildList(t.Raw(), p)
	case *Dict:
		return newChildDict(t.Raw(), p)
	default:
		return v
	}
}

// changed propagates a mutation up the parent chain. The root container
// reports itself as the current top-level value.
func (l *List) changed() {
	if l.parent != nil {
		l.parent.childChanged()
		return
	}
	if l.root != nil {
		l.root.ContainerChanged(l)
	}
}

// childChanged implements parent.
func (l *List) childChanged() {
	l.changed()
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.items)
}

// Get returns the element at index i, or nil if out of range. Nested
// containers are returned in wrapped form so they can be mutated in place.
func (l *List) Get(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Items returns a shallow copy of the elements.
func (l *List) Items() []any {
	if len(l.items) == 0 {
		return nil
	}
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Raw returns a deep snapshot with all observable wrappers stripped.
func (l *List) Raw() []any {
	if len(l.items) == 0 {
		return nil
	}
	out := make([]any, len(l.items))
	for i, v := range l.items {
		out[i] = rawValue(v)
	}
	return out
}

// rawValue unwraps nested containers to plain slices and maps.
func rawValue(v any) any {
	switch t := v.(type) {
	case *List:
		return t.Raw()
	case *Dict:
		return t.Raw()
	default:
		return v
	}
}

// Set replaces the element at index i.
func (l *List) Set(i int, v any) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	l.items[i] = wrapValue(v, l)
	l.changed()
	return nil
}

// Append adds values to the end of the list. A single notification covers
// the whole batch.
func (l *List) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	for _, v := range values {
		l.items = append(l.items, wrapValue(v, l))
	}
	l.changed()
}

// Insert places a value at index i, shifting later elements right.
// i may equal Len to append.
func (l *List) Insert(i int, v any) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = wrapValue(v, l)
	l.changed()
	return nil
}

// RemoveAt deletes the element at index i.
func (l *List) RemoveAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.changed()
	return nil
}

// Remove deletes the first element structurally equal to v. It reports
// whether an element was removed; removing a missing value does not notify.
func (l *List) Remove(v any) bool {
	want := rawValue(v)
	for i, item := range l.items {
		if reflect.DeepEqual(rawValue(item), want) {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.changed()
			return true
		}
	}
	return false
}

// Extend appends every element of values, then notifies once.
func (l *List) Extend(values []any) {
	l.Append(values...)
}

// Clear removes all elements.
func (l *List) Clear() {
	l.items = nil
	l.changed()
}
