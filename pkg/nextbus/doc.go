// Package nextbus is an in-process publish/subscribe event bus.
//
// Handlers declare one or more named, typed slots. Emitting a value
// under a name fills the matching slot of every handler that declares
// it; a handler fires once all of its slots hold a value, on the
// execution context it chose at registration: inline on the emitting
// goroutine, on a single FIFO worker, or on a worker pool.
//
// Basic usage:
//
//	bus := nextbus.New(nextbus.WithLogger(logger))
//	defer bus.Shutdown(context.Background())
//
//	d := event.MustDescriptor(owner, func(ctx context.Context, v event.Values) error {
//	    fmt.Println(v.Int("x"), v.String("y"))
//	    return nil
//	}, event.On[int]("x"), event.On[string]("y"), event.WithContext(exec.Pooled))
//
//	if err := bus.Register(d); err != nil {
//	    return err
//	}
//	bus.Emit(ctx, "x", 5)
//	bus.Emit(ctx, "y", "ok") // handler fires with {x:5, y:"ok"}
//
// Emit is asynchronous; its errors, and handler errors, go to the
// listener set with SetErrorListener. EmitImmediately matches on the
// calling goroutine and returns unconsumed errors directly.
package nextbus
