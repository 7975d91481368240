package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

// HandlerFunc is a handler body. It receives one value per declared slot.
type HandlerFunc func(ctx context.Context, vals Values) error

// Slot is a named, typed input of a descriptor.
type Slot struct {
	Name string
	Type TypeTag

	accept func(v any) bool
}

// Matches reports whether v satisfies the slot's type and filter.
func (s Slot) Matches(v any) bool {
	if !s.Type.Matches(v) {
		return false
	}
	return s.accept == nil || s.accept(v)
}

// Filter narrows the values a slot accepts.
type Filter[T any] func(v T) bool

// Descriptor is a compiled handler: an ordered set of unique slots, the
// body to invoke once every slot holds a value, the execution context it
// runs in, and the owner it is registered under.
//
// Descriptors are immutable once built.
type Descriptor struct {
	id      string
	name    string
	owner   any
	slots   []Slot
	index   map[string]int
	kind    exec.Kind
	handler HandlerFunc
}

// DescriptorOption configures a descriptor.
type DescriptorOption func(*descriptorBuilder)

type descriptorBuilder struct {
	id    string
	name  string
	kind  exec.Kind
	slots []Slot
}

// On declares a slot named name that accepts values of type T.
// Filters, if any, must all accept a value for it to fill the slot.
func On[T any](name string, filters ...Filter[T]) DescriptorOption {
	slot := Slot{Name: name, Type: TypeOf[T]()}
	if len(filters) > 0 {
		slot.accept = func(v any) bool {
			t, ok := coerce[T](v)
			if !ok {
				return false
			}
			for _, f := range filters {
				if !f(t) {
					return false
				}
			}
			return true
		}
	}
	return func(b *descriptorBuilder) {
		b.slots = append(b.slots, slot)
	}
}

// OnType declares a slot with an explicit tag.
func OnType(name string, tag TypeTag) DescriptorOption {
	return func(b *descriptorBuilder) {
		b.slots = append(b.slots, Slot{Name: name, Type: tag})
	}
}

// WithContext selects the execution context the handler runs in.
// The default is exec.Serial.
func WithContext(kind exec.Kind) DescriptorOption {
	return func(b *descriptorBuilder) {
		b.kind = kind
	}
}

// WithName sets a human-readable name used in logs and errors.
func WithName(name string) DescriptorOption {
	return func(b *descriptorBuilder) {
		b.name = name
	}
}

// WithID overrides the generated descriptor ID.
func WithID(id string) DescriptorOption {
	return func(b *descriptorBuilder) {
		b.id = id
	}
}

// NewDescriptor compiles a handler. Owner groups descriptors for
// Unregister and must be comparable.
func NewDescriptor(owner any, handler HandlerFunc, opts ...DescriptorOption) (*Descriptor, error) {
	b := descriptorBuilder{kind: exec.Serial}
	for _, opt := range opts {
		opt(&b)
	}

	fail := func(slot string, err error) (*Descriptor, error) {
		return nil, &DescriptorError{Name: b.name, Slot: slot, Err: err}
	}

	if handler == nil {
		return fail("", ErrNilHandler)
	}
	if owner == nil {
		return fail("", ErrNilOwner)
	}
	if !isComparable(owner) {
		return fail("", ErrOwnerNotComparable)
	}
	if !b.kind.Valid() {
		return fail("", ErrInvalidContext)
	}
	if len(b.slots) == 0 {
		return fail("", ErrNoSlots)
	}

	index := make(map[string]int, len(b.slots))
	for i, s := range b.slots {
		if s.Name == "" {
			return fail("", ErrEmptySlotName)
		}
		if _, dup := index[s.Name]; dup {
			return fail(s.Name, ErrDuplicateSlot)
		}
		index[s.Name] = i
	}

	d := &Descriptor{
		id:      b.id,
		name:    b.name,
		owner:   owner,
		slots:   b.slots,
		index:   index,
		kind:    b.kind,
		handler: handler,
	}
	if d.id == "" {
		d.id = uuid.NewString()
	}
	if d.name == "" {
		d.name = strings.Join(d.Events(), "+")
	}
	return d, nil
}

// MustDescriptor is like NewDescriptor but panics on error.
func MustDescriptor(owner any, handler HandlerFunc, opts ...DescriptorOption) *Descriptor {
	d, err := NewDescriptor(owner, handler, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func isComparable(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = v == v // panics for uncomparable dynamic types
	return true
}

// ID returns the descriptor's unique identity.
func (d *Descriptor) ID() string { return d.id }

// Name returns the descriptor's display name.
func (d *Descriptor) Name() string { return d.name }

// Owner returns the value the descriptor is registered under.
func (d *Descriptor) Owner() any { return d.owner }

// Context returns the execution context the handler runs in.
func (d *Descriptor) Context() exec.Kind { return d.kind }

// Slots returns a copy of the declared slots in declaration order.
func (d *Descriptor) Slots() []Slot {
	out := make([]Slot, len(d.slots))
	copy(out, d.slots)
	return out
}

// Events returns the slot names in declaration order.
func (d *Descriptor) Events() []string {
	names := make([]string, len(d.slots))
	for i, s := range d.slots {
		names[i] = s.Name
	}
	return names
}

// Slot returns the slot declared for name.
func (d *Descriptor) Slot(name string) (Slot, bool) {
	i, ok := d.index[name]
	if !ok {
		return Slot{}, false
	}
	return d.slots[i], true
}

// Invoke runs the handler body on the calling goroutine.
func (d *Descriptor) Invoke(ctx context.Context, vals Values) error {
	return d.handler(ctx, vals)
}

// Compiler turns a host value into descriptors.
type Compiler interface {
	Compile(host any) ([]*Descriptor, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(host any) ([]*Descriptor, error)

// Compile calls f(host).
func (f CompilerFunc) Compile(host any) ([]*Descriptor, error) {
	return f(host)
}

// Describer is implemented by hosts that build their own descriptors.
type Describer interface {
	Describe() ([]*Descriptor, error)
}

// DescribeCompiler compiles hosts that implement Describer.
var DescribeCompiler Compiler = CompilerFunc(func(host any) ([]*Descriptor, error) {
	d, ok := host.(Describer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotDescriber, host)
	}
	return d.Describe()
})
