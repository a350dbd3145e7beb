package dispatch

import "sort"

// Manifest is the immutable set of event and property declarations for one
// dispatcher-bearing type. It is composed once, at startup, and shared by
// every instance of the type; per-instance state (live events, bindings,
// property values) lives on the Dispatcher.
//
// Manifests compose hierarchically through WithBase, replacing runtime type
// introspection with an explicit startup step that rejects conflicts eagerly.
type Manifest struct {
	events map[string]struct{}
	props  map[string]Property
}

// manifestConfig accumulates declarations before composition.
type manifestConfig struct {
	bases  []*Manifest
	events []string
	props  []Property
}

// ManifestOption contributes declarations to NewManifest.
type ManifestOption func(*manifestConfig)

// WithBase merges the declarations of a base manifest. Bases are applied in
// order, before the manifest's own declarations.
func WithBase(base *Manifest) ManifestOption {
	return func(c *manifestConfig) {
		if base != nil {
			c.bases = append(c.bases, base)
		}
	}
}

// WithEvents declares event names. Re-declaring an inherited event name is
// idempotent.
func WithEvents(names ...string) ManifestOption {
	return func(c *manifestConfig) {
		c.events = append(c.events, names...)
	}
}

// WithProperties declares properties. A property overrides a same-name
// property inherited from a base.
func WithProperties(props ...Property) ManifestOption {
	return func(c *manifestConfig) {
		c.props = append(c.props, props...)
	}
}

// NewManifest composes a manifest from bases and declarations. A name
// declared as both an event and a property - in any combination of bases and
// own declarations - is rejected with EventExistsError or
// PropertyExistsError.
func NewManifest(opts ...ManifestOption) (*Manifest, error) {
	var cfg manifestConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manifest{
		events: make(map[string]struct{}),
		props:  make(map[string]Property),
	}

	for _, base := range cfg.bases {
		for name := range base.events {
			if _, ok := m.props[name]; ok {
				return nil, &PropertyExistsError{Name: name}
			}
			m.events[name] = struct{}{}
		}
		for name, prop := range base.props {
			if _, ok := m.events[name]; ok {
				return nil, &EventExistsError{Name: name}
			}
			m.props[name] = prop
		}
	}

	for _, name := range cfg.events {
		if _, ok := m.props[name]; ok {
			return nil, &PropertyExistsError{Name: name}
		}
		m.events[name] = struct{}{}
	}

	for _, prop := range cfg.props {
		if _, ok := m.events[prop.Name()]; ok {
			return nil, &EventExistsError{Name: prop.Name()}
		}
		m.props[prop.Name()] = prop
	}

	return m, nil
}

// MustManifest is like NewManifest but panics on conflict. Intended for
// package-level manifest variables, where a conflict is a programming error.
func MustManifest(opts ...ManifestOption) *Manifest {
	m, err := NewManifest(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// EventNames returns the declared event names in sorted order. Property
// names are not included even though each property has an implicit event.
func (m *Manifest) EventNames() []string {
	if len(m.events) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.events))
	for name := range m.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Properties returns the declared properties sorted by name.
func (m *Manifest) Properties() []Property {
	if len(m.props) == 0 {
		return nil
	}
	props := make([]Property, 0, len(m.props))
	for _, p := range m.props {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool {
		return props[i].Name() < props[j].Name()
	})
	return props
}

// Property returns the declared property for name.
func (m *Manifest) Property(name string) (Property, bool) {
	p, ok := m.props[name]
	return p, ok
}

// HasEvent reports whether name is a declared event.
func (m *Manifest) HasEvent(name string) bool {
	_, ok := m.events[name]
	return ok
}
