package event

import (
	"fmt"
	"math"
)

// family groups builtin value types that match each other regardless of
// width. Any other type belongs to the exact family and matches only
// itself.
type family uint8

const (
	exact family = iota
	familyInt
	familyUint
	familyFloat
	familyComplex
	familyBool
	familyString
)

var familyNames = [...]string{
	familyInt:     "int",
	familyUint:    "uint",
	familyFloat:   "float",
	familyComplex: "complex",
	familyBool:    "bool",
	familyString:  "string",
}

func familyOf(v any) family {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return familyInt
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return familyUint
	case float32, float64:
		return familyFloat
	case complex64, complex128:
		return familyComplex
	case bool:
		return familyBool
	case string:
		return familyString
	}
	return exact
}

// TypeTag is the expected type of a slot.
//
// Builtin numeric widths are normalized into families: a slot declared
// with TypeOf[int]() accepts int8 through int64, TypeOf[float64]()
// accepts float32, and so on. Every other type, including named types
// such as `type Celsius int`, matches only values whose dynamic type is
// exactly that type (or that implement it, for interface types).
type TypeTag struct {
	name   string
	family family
	is     func(v any) bool
}

// TypeOf returns the tag for T.
func TypeOf[T any]() TypeTag {
	var zero T
	if f := familyOf(any(zero)); f != exact {
		return TypeTag{name: familyNames[f], family: f}
	}

	// %T of a nil *T names T even when T is an interface type.
	name := fmt.Sprintf("%T", (*T)(nil))[1:]
	return TypeTag{
		name:   name,
		family: exact,
		is: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
	}
}

// AnyType matches every non-nil value.
var AnyType = TypeOf[any]()

// Matches reports whether v's normalized type equals the tag.
func (t TypeTag) Matches(v any) bool {
	if v == nil {
		return false
	}
	if t.family != exact {
		return familyOf(v) == t.family
	}
	return t.is != nil && t.is(v)
}

// Equal reports whether two tags describe the same normalized type.
func (t TypeTag) Equal(other TypeTag) bool {
	return t.family == other.family && t.name == other.name
}

// String returns the family or type name.
func (t TypeTag) String() string {
	if t.name == "" {
		return "<invalid>"
	}
	return t.name
}

// coerce converts v to T. Values of another width in T's family are
// converted when they fit T; a value out of T's range does not convert.
// Anything else must already be a T.
func coerce[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}

	var out T
	ok := false
	switch p := any(&out).(type) {
	case *int:
		var i int64
		if i, ok = signedIn(v, math.MinInt, math.MaxInt); ok {
			*p = int(i)
		}
	case *int8:
		var i int64
		if i, ok = signedIn(v, math.MinInt8, math.MaxInt8); ok {
			*p = int8(i)
		}
	case *int16:
		var i int64
		if i, ok = signedIn(v, math.MinInt16, math.MaxInt16); ok {
			*p = int16(i)
		}
	case *int32:
		var i int64
		if i, ok = signedIn(v, math.MinInt32, math.MaxInt32); ok {
			*p = int32(i)
		}
	case *int64:
		*p, ok = asInt64(v)
	case *uint:
		var u uint64
		if u, ok = unsignedIn(v, math.MaxUint); ok {
			*p = uint(u)
		}
	case *uint8:
		var u uint64
		if u, ok = unsignedIn(v, math.MaxUint8); ok {
			*p = uint8(u)
		}
	case *uint16:
		var u uint64
		if u, ok = unsignedIn(v, math.MaxUint16); ok {
			*p = uint16(u)
		}
	case *uint32:
		var u uint64
		if u, ok = unsignedIn(v, math.MaxUint32); ok {
			*p = uint32(u)
		}
	case *uint64:
		*p, ok = asUint64(v)
	case *uintptr:
		var u uint64
		if u, ok = unsignedIn(v, uint64(^uintptr(0))); ok {
			*p = uintptr(u)
		}
	case *float32:
		var f float64
		if f, ok = asFloat64(v); ok && fitsFloat32(f) {
			*p = float32(f)
		} else {
			ok = false
		}
	case *float64:
		*p, ok = asFloat64(v)
	case *complex64:
		var c complex128
		if c, ok = asComplex128(v); ok && fitsFloat32(real(c)) && fitsFloat32(imag(c)) {
			*p = complex64(c)
		} else {
			ok = false
		}
	case *complex128:
		*p, ok = asComplex128(v)
	}
	return out, ok
}

func signedIn(v any, lo, hi int64) (int64, bool) {
	i, ok := asInt64(v)
	return i, ok && i >= lo && i <= hi
}

func unsignedIn(v any, hi uint64) (uint64, bool) {
	u, ok := asUint64(v)
	return u, ok && u <= hi
}

// fitsFloat32 reports whether f survives narrowing without becoming
// infinite. Precision loss is allowed.
func fitsFloat32(f float64) bool {
	return math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) <= math.MaxFloat32
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uintptr:
		return uint64(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asComplex128(v any) (complex128, bool) {
	switch n := v.(type) {
	case complex64:
		return complex128(n), true
	case complex128:
		return n, true
	}
	return 0, false
}
