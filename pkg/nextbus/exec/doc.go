// Package exec provides the execution contexts that handler invocations
// run on.
//
// Three kinds exist and a handler picks one when it is built:
//
//   - Inline runs the work on the goroutine that dispatched it, before
//     the dispatch call returns.
//   - Serial posts the work to a single worker with a FIFO queue. No two
//     Serial tasks run at the same time and they run in submission order.
//   - Pooled submits the work to a bounded worker pool with no ordering
//     guarantee.
//
// A Provider bundles one Executor per kind:
//
//	p := exec.NewProvider(exec.NewSerialQueue(), exec.NewPool(exec.WithWorkers(8)))
//	defer p.Shutdown(context.Background())
//
//	err := p.Submit(exec.Pooled, func() error {
//	    return doWork()
//	})
//
// # Faults
//
// Serial and Pooled tasks have nobody to return an error to. A task that
// returns an error or panics is reported to the executor's FaultHandler,
// which by default logs it through slog at error level.
//
// # Shutdown
//
// Shutdown stops accepting work (Submit returns ErrShutdown) and waits for
// queued tasks to drain, or for the context to end.
package exec
