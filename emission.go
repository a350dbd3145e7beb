package dispatch

// Fields carries named metadata attached to an emission.
// Property-change emissions populate the "old" and "property" fields.
type Fields map[string]any

// Emission is the payload delivered to every subscriber of an event.
// Emissions are immutable once created; callbacks must not retain or modify
// the Args slice.
type Emission struct {
	// Event is the name of the event that fired.
	Event string

	// Args are the positional arguments passed to Emit. For property-change
	// emissions, Args[0] is the emitting instance and Args[1] the new value.
	Args []any

	// Fields are the named arguments passed to EmitWith.
	Fields Fields
}

// Arg returns the positional argument at index i, or nil if out of range.
func (e Emission) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Field returns the named argument for key, or nil when absent.
func (e Emission) Field(key string) any {
	return e.Fields[key]
}

// Value returns the new value of a property-change emission (Args[1]).
func (e Emission) Value() any {
	return e.Arg(1)
}

// Old returns the previous value of a property-change emission, or nil for
// container-mutation emissions and plain events.
func (e Emission) Old() any {
	return e.Fields["old"]
}

// Property returns the Property behind a property-change emission, or nil
// for plain events.
func (e Emission) Property() Property {
	p, _ := e.Fields["property"].(Property)
	return p
}
