package dispatch

import (
	"context"
	"reflect"

	"github.com/nocarryr/go-dispatch/observable"
)

// Validator checks a candidate property value before it is stored.
type Validator func(value any) error

// EqualFunc reports whether two property values are equal. Equal values make
// an assignment a silent no-op.
type EqualFunc func(a, b any) bool

// Property describes a typed, change-detected slot declared on a Manifest.
// The declaration is class-scoped; per-instance value storage lives on the
// Dispatcher. Assigning a property emits its namesake event when the new
// value differs from the current one.
type Property interface {
	// Name returns the property name, shared with its implicit event.
	Name() string

	// Default returns the declared default value.
	Default() any

	// Doc returns the attached documentation string, if any.
	Doc() string

	// Validate checks a candidate value. A non-nil error aborts the
	// assignment before any state changes.
	Validate(value any) error

	// Equal reports whether two values are considered unchanged.
	Equal(a, b any) bool
}

// containerProperty is implemented by list and dict properties. wrapValue
// converts a raw assigned value into an observable container rooted at root.
type containerProperty interface {
	Property
	wrapValue(value any, root observable.Root) (any, error)
}

// baseProperty is the untyped property implementation.
type baseProperty struct {
	name      string
	def       any
	doc       string
	validator Validator
	equal     EqualFunc
}

// PropertyOption configures a property declaration.
type PropertyOption func(*baseProperty)

// WithDoc attaches a documentation string, exposed through Manifest
// introspection.
func WithDoc(doc string) PropertyOption {
	return func(p *baseProperty) {
		p.doc = doc
	}
}

// WithValidator sets a validator run on every assignment. For typed
// properties it runs after the kind check.
func WithValidator(v Validator) PropertyOption {
	return func(p *baseProperty) {
		p.validator = v
	}
}

// WithEqualFunc replaces the default equality predicate.
func WithEqualFunc(eq EqualFunc) PropertyOption {
	return func(p *baseProperty) {
		p.equal = eq
	}
}

// NewProperty declares an untyped property with the given default.
func NewProperty(name string, def any, opts ...PropertyOption) Property {
	p := &baseProperty{name: name, def: def}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the property name.
func (p *baseProperty) Name() string {
	return p.name
}

// Default returns the declared default value.
func (p *baseProperty) Default() any {
	return p.def
}

// Doc returns the attached documentation string.
func (p *baseProperty) Doc() string {
	return p.doc
}

// Validate runs the configured validator, if any.
func (p *baseProperty) Validate(value any) error {
	if p.validator == nil {
		return nil
	}
	return p.validator(value)
}

// Equal applies the configured or default equality predicate.
func (p *baseProperty) Equal(a, b any) bool {
	if p.equal != nil {
		return p.equal(a, b)
	}
	return defaultEqual(a, b)
}

// defaultEqual compares values structurally, unwrapping observable
// containers so a raw value and its wrapped form compare equal.
func defaultEqual(a, b any) bool {
	return reflect.DeepEqual(rawValue(a), rawValue(b))
}

// rawValue strips observable wrappers down to plain slices and maps.
func rawValue(v any) any {
	switch t := v.(type) {
	case *observable.List:
		return t.Raw()
	case *observable.Dict:
		return t.Raw()
	default:
		return v
	}
}

// propertyCell is the per-instance value storage for one property. It is the
// root of any observable container tree held by the property: container
// mutations surface here and re-emit the property's event with the full
// top-level value.
type propertyCell struct {
	d     *Dispatcher
	prop  Property
	value any
}

// ContainerChanged implements observable.Root. Structural mutation always
// emits; the equality gate applies only to whole-value reassignment.
func (c *propertyCell) ContainerChanged(top any) {
	c.d.emitPropertyChange(context.Background(), c.prop, nil, top)
}
