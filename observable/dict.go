package observable

import "sort"

// Dict is a mutation-instrumented string-keyed map. All mutating operations
// notify the owning property through the parent chain.
type Dict struct {
	items  map[string]any
	parent parent
	root   Root
}

// NewDict wraps raw into a new top-level observable dict reporting to root.
// The contents are copied structurally; raw is not retained.
func NewDict(raw map[string]any, root Root) *Dict {
	d := &Dict{root: root, items: make(map[string]any, len(raw))}
	for k, v := range raw {
		d.items[k] = wrapValue(v, d)
	}
	return d
}

// newChildDict wraps raw as a nested dict under p.
func newChildDict(raw map[string]any, p parent) *Dict {
	d := &Dict{parent: p, items: make(map[string]any, len(raw))}
	for k, v := range raw {
		d.items[k] = wrapValue(v, d)
	}
	return d
}

// changed propagates a mutation up the parent chain.
func (d *Dict) changed() {
	if d.parent != nil {
		d.parent.childChanged()
		return
	}
	if d.root != nil {
		d.root.ContainerChanged(d)
	}
}

// childChanged implements parent.
func (d *Dict) childChanged() {
	d.changed()
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.items)
}

// Get returns the value for key and whether it was present. Nested
// containers are returned in wrapped form so they can be mutated in place.
func (d *Dict) Get(key string) (any, bool) {
	v, ok := d.items[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (d *Dict) Keys() []string {
	if len(d.items) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.items))
	for k := range d.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items returns a shallow copy of the entries.
func (d *Dict) Items() map[string]any {
	out := make(map[string]any, len(d.items))
	for k, v := range d.items {
		out[k] = v
	}
	return out
}

// Raw returns a deep snapshot with all observable wrappers stripped.
func (d *Dict) Raw() map[string]any {
	if len(d.items) == 0 {
		return nil
	}
	out := make(map[string]any, len(d.items))
	for k, v := range d.items {
		out[k] = rawValue(v)
	}
	return out
}

// Set stores a value under key.
func (d *Dict) Set(key string, v any) {
	d.items[key] = wrapValue(v, d)
	d.changed()
}

// Delete removes key. It reports whether the key was present; deleting a
// missing key does not notify.
func (d *Dict) Delete(key string) bool {
	if _, ok := d.items[key]; !ok {
		return false
	}
	delete(d.items, key)
	d.changed()
	return true
}

// Pop removes key and returns its former value. Popping a missing key does
// not notify.
func (d *Dict) Pop(key string) (any, bool) {
	v, ok := d.items[key]
	if !ok {
		return nil, false
	}
	delete(d.items, key)
	d.changed()
	return v, true
}

// Update stores every entry of other, then notifies once.
func (d *Dict) Update(other map[string]any) {
	if len(other) == 0 {
		return
	}
	for k, v := range other {
		d.items[k] = wrapValue(v, d)
	}
	d.changed()
}

// Clear removes all entries.
func (d *Dict) Clear() {
	d.items = make(map[string]any)
	d.changed()
}
