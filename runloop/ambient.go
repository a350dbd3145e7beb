package runloop

import "sync"

// The ambient table tracks running loops for execution-context inference.
var (
	ambientMu sync.Mutex
	ambient   []*Loop
)

// registerAmbient adds a started loop to the ambient table.
func registerAmbient(l *Loop) {
	ambientMu.Lock()
	defer ambientMu.Unlock()
	ambient = append(ambient, l)
}

// unregisterAmbient removes a stopped loop from the ambient table.
func unregisterAmbient(l *Loop) {
	ambientMu.Lock()
	defer ambientMu.Unlock()
	for i, a := range ambient {
		if a == l {
			ambient = append(ambient[:i], ambient[i+1:]...)
			return
		}
	}
}

// Ambient resolves the execution context for bindings that did not name one.
// It succeeds only when exactly one loop is running: zero loops yield
// ErrNoLoop, more than one yields ErrAmbiguousLoop.
func Ambient() (*Loop, error) {
	ambientMu.Lock()
	defer ambientMu.Unlock()
	switch len(ambient) {
	case 0:
		return nil, ErrNoLoop
	case 1:
		return ambient[0], nil
	default:
		return nil, ErrAmbiguousLoop
	}
}

// RunningLoops returns the number of loops currently registered as ambient.
func RunningLoops() int {
	ambientMu.Lock()
	defer ambientMu.Unlock()
	return len(ambient)
}
