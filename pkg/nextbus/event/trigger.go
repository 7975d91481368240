package event

import "context"

// Trigger is a ready-to-run invocation: a descriptor and one value per slot.
type Trigger struct {
	Descriptor *Descriptor
	Values     Values
}

// Invoke runs the descriptor's body with the trigger's values.
func (t Trigger) Invoke(ctx context.Context) error {
	return t.Descriptor.Invoke(ctx, t.Values)
}
