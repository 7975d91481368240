package event

import (
	"log/slog"
	"math"
	"sort"
)

// Values maps slot names to the values that satisfied them.
// Each Trigger carries its own Values; handlers may keep it.
type Values map[string]any

// Get returns the raw value for a slot.
func (v Values) Get(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// String returns the string value for name, or "" if missing or not a string.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Int returns the value for name widened to int64. Any signed or
// unsigned integer width is accepted; unsigned values above
// math.MaxInt64 clamp to math.MaxInt64. Anything else yields 0.
func (v Values) Int(name string) int64 {
	val := v[name]
	if i, ok := asInt64(val); ok {
		return i
	}
	if u, ok := asUint64(val); ok {
		if u > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(u)
	}
	return 0
}

// Float returns the value for name as float64. Integers are converted.
func (v Values) Float(name string) float64 {
	val := v[name]
	if f, ok := asFloat64(val); ok {
		return f
	}
	if i, ok := asInt64(val); ok {
		return float64(i)
	}
	if u, ok := asUint64(val); ok {
		return float64(u)
	}
	return 0
}

// Bool returns the bool value for name, or false.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Names returns the slot names in sorted order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v))
	for n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LogValue implements slog.LogValuer.
func (v Values) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(v))
	for _, n := range v.Names() {
		attrs = append(attrs, slog.Any(n, v[n]))
	}
	return slog.GroupValue(attrs...)
}

// Value returns the value for name as a T. Builtin numeric values of
// another width in T's family are converted when they fit T.
func Value[T any](v Values, name string) (T, bool) {
	val, ok := v[name]
	if !ok {
		var zero T
		return zero, false
	}
	return coerce[T](val)
}
