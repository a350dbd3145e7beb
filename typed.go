package dispatch

import (
	"fmt"

	"github.com/nocarryr/go-dispatch/observable"
)

// typedProperty wraps a base property with a kind check that runs before any
// user validator. Typed properties change only validation, never the
// change-detection or emission contract.
type typedProperty struct {
	baseProperty
	kind  string
	check func(value any) bool
}

// Validate runs the kind check, then the configured validator.
func (p *typedProperty) Validate(value any) error {
	if !p.check(value) {
		return fmt.Errorf("expected %s, got %T", p.kind, value)
	}
	return p.baseProperty.Validate(value)
}

func newTyped(name string, def any, kind string, check func(any) bool, opts []PropertyOption) Property {
	p := &typedProperty{
		baseProperty: baseProperty{name: name, def: def},
		kind:         kind,
		check:        check,
	}
	for _, opt := range opts {
		opt(&p.baseProperty)
	}
	return p
}

// NewIntProperty declares a property accepting only int values.
func NewIntProperty(name string, def int, opts ...PropertyOption) Property {
	return newTyped(name, def, "int", func(v any) bool {
		_, ok := v.(int)
		return ok
	}, opts)
}

// NewFloatProperty declares a property accepting only float64 values.
func NewFloatProperty(name string, def float64, opts ...PropertyOption) Property {
	return newTyped(name, def, "float64", func(v any) bool {
		_, ok := v.(float64)
		return ok
	}, opts)
}

// NewBoolProperty declares a property accepting only bool values.
func NewBoolProperty(name string, def bool, opts ...PropertyOption) Property {
	return newTyped(name, def, "bool", func(v any) bool {
		_, ok := v.(bool)
		return ok
	}, opts)
}

// NewStringProperty declares a property accepting only string values.
func NewStringProperty(name string, def string, opts ...PropertyOption) Property {
	return newTyped(name, def, "string", func(v any) bool {
		_, ok := v.(string)
		return ok
	}, opts)
}

// listProperty backs its per-instance value with an observable.List.
type listProperty struct {
	baseProperty
}

// NewListProperty declares a property holding an observable list. The default
// is structurally copied per instance; a nil default means an empty list.
func NewListProperty(name string, def []any, opts ...PropertyOption) Property {
	p := &listProperty{baseProperty{name: name, def: def}}
	for _, opt := range opts {
		opt(&p.baseProperty)
	}
	return p
}

// wrapValue converts an assigned value into a fresh observable list.
func (p *listProperty) wrapValue(value any, root observable.Root) (any, error) {
	var raw []any
	switch t := value.(type) {
	case nil:
		raw = nil
	case []any:
		raw = t
	case *observable.List:
		raw = t.Raw()
	default:
		return nil, &ValidationError{
			Property: p.name,
			Value:    value,
			Err:      fmt.Errorf("expected []any, got %T", value),
		}
	}
	return observable.NewList(raw, root), nil
}

// dictProperty backs its per-instance value with an observable.Dict.
type dictProperty struct {
	baseProperty
}

// NewDictProperty declares a property holding an observable dict. The default
// is structurally copied per instance; a nil default means an empty dict.
func NewDictProperty(name string, def map[string]any, opts ...PropertyOption) Property {
	p := &dictProperty{baseProperty{name: name, def: def}}
	for _, opt := range opts {
		opt(&p.baseProperty)
	}
	return p
}

// wrapValue converts an assigned value into a fresh observable dict.
func (p *dictProperty) wrapValue(value any, root observable.Root) (any, error) {
	var raw map[string]any
	switch t := value.(type) {
	case nil:
		raw = nil
	case map[string]any:
		raw = t
	case *observable.Dict:
		raw = t.Raw()
	default:
		return nil, &ValidationError{
			Property: p.name,
			Value:    value,
			Err:      fmt.Errorf("expected map[string]any, got %T", value),
		}
	}
	return observable.NewDict(raw, root), nil
}
