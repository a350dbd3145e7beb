// Package runloop provides the execution contexts that asynchronous dispatch
// callbacks run on.
//
// A Loop is a serial task scheduler: a bounded queue drained by a single
// worker goroutine, so tasks submitted to one loop never run concurrently
// with each other. Dispatchers submit callback invocations to a loop instead
// of calling them inline; the emitting call returns without waiting.
//
//	loop := runloop.New()
//	if err := loop.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer loop.Stop(context.Background())
//
//	task, err := loop.Submit(ctx, func(ctx context.Context) error {
//	    // runs later, on the loop's goroutine
//	    return nil
//	})
//	<-task.Done()
//
// # Ambient loops
//
// Every running loop registers in a process-wide table. Ambient resolves the
// execution context for bindings that did not name one: it succeeds only
// when exactly one loop is running. Zero running loops yields ErrNoLoop and
// two or more yield ErrAmbiguousLoop - ambiguity is rejected, never guessed.
//
// # Failure handling
//
// A task that returns an error or panics is logged on the loop's logger and
// recorded in its stats; failures are never surfaced back through the
// emission that scheduled the task.
package runloop
