package config

import (
	"time"
)

// Config wraps a map[string]any for typed value extraction.
// Accessors return the default if the key is missing or the value
// cannot be converted to the requested type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as milliseconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	if d, ok := toDuration(c.data[key]); ok {
		return d
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
// A float64 converts only when it has no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	if i, ok := toInt(c.data[key]); ok {
		return i
	}
	return defaultVal
}

// Section returns the nested map under key as a Config. A missing or
// non-map value yields an empty Config.
func (c Config) Section(key string) Config {
	switch m := c.data[key].(type) {
	case map[string]any:
		return New(m)
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			if ks, ok := k.(string); ok {
				out[ks] = v
			}
		}
		return New(out)
	}
	return New(nil)
}

// Any returns the raw value for key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	return v
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint64:
		return int(val), true
	case float64:
		if val == float64(int(val)) {
			return int(val), true
		}
	}
	return 0, false
}

func toDuration(v any) (time.Duration, bool) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(val)
		return d, err == nil
	case time.Duration:
		return val, true
	case int:
		return time.Duration(val) * time.Millisecond, true
	case int64:
		return time.Duration(val) * time.Millisecond, true
	case float64:
		return time.Duration(val * float64(time.Millisecond)), true
	}
	return 0, false
}
