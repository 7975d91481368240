// Package event implements the event directory and dispatch router.
//
// A Descriptor declares named, typed slots and a handler body:
//
//	d, err := event.NewDescriptor(owner, handle,
//	    event.On[int]("x"),
//	    event.On[string]("y"),
//	    event.WithContext(exec.Pooled),
//	)
//
// The Reactor indexes descriptors by slot name. Emitting a value under a
// name offers it to every descriptor with a matching slot; single-slot
// descriptors trigger at once, multi-slot descriptors accumulate values
// in a pending match and trigger when every slot is filled. A later
// value for an already-filled slot replaces the earlier one.
//
// The Router runs the resulting triggers on their execution contexts and
// captures handler errors for a Reporter.
package event
