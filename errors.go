package dispatch

import "errors"

// Sentinel errors for the dispatcher.
var (
	// ErrDoesNotExist is returned when an operation references an event or
	// property name that was never declared or registered.
	ErrDoesNotExist = errors.New("event or property does not exist")

	// ErrExists is returned when a name is redeclared with a conflicting kind.
	ErrExists = errors.New("name already registered")

	// ErrValidation is returned when a property validator rejects a value.
	ErrValidation = errors.New("property validation failed")

	// ErrNilCallback is returned when a binding carries no resolvable callback.
	ErrNilCallback = errors.New("callback cannot be nil")

	// ErrNotProperty is returned when Get or Set references a name that is an
	// event but not a property.
	ErrNotProperty = errors.New("name is not a property")
)

// Stop is the propagation-stop sentinel. A synchronous callback that returns
// Stop halts delivery to the remaining subscribers of the current emission.
// It is never reported as an error by Emit.
var Stop = errors.New("stop propagation")

// DoesNotExistError identifies the unknown name behind ErrDoesNotExist.
type DoesNotExistError struct {
	// Name is the event or property name that could not be resolved.
	Name string
}

// Error implements the error interface.
func (e *DoesNotExistError) Error() string {
	return "event or property does not exist: " + e.Name
}

// Is allows errors.Is to match DoesNotExistError with ErrDoesNotExist.
func (e *DoesNotExistError) Is(target error) bool {
	return target == ErrDoesNotExist
}

// EventExistsError is returned when a property declaration collides with an
// already-declared event name.
type EventExistsError struct {
	// Name is the conflicting name.
	Name string
}

// Error implements the error interface.
func (e *EventExistsError) Error() string {
	return "event already registered: " + e.Name
}

// Is allows errors.Is to match EventExistsError with ErrExists.
func (e *EventExistsError) Is(target error) bool {
	return target == ErrExists
}

// PropertyExistsError is returned when an event registration collides with an
// already-declared property name.
type PropertyExistsError struct {
	// Name is the conflicting name.
	Name string
}

// Error implements the error interface.
func (e *PropertyExistsError) Error() string {
	return "property already registered: " + e.Name
}

// Is allows errors.Is to match PropertyExistsError with ErrExists.
func (e *PropertyExistsError) Is(target error) bool {
	return target == ErrExists
}

// ValidationError reports a rejected property assignment. The assignment does
// not take effect and no event fires.
type ValidationError struct {
	// Property is the name of the property whose validator rejected the value.
	Property string

	// Value is the rejected value.
	Value any

	// Err is the underlying validator error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid value for property " + e.Property + ": " + e.Err.Error()
}

// Is allows errors.Is to match ValidationError with ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unwrap returns the underlying validator error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
