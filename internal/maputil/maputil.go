// Package maputil provides helpers for loosely-typed configuration maps.
package maputil

import (
	"fmt"
	"strings"
)

// DeepCopy returns a copy of m where nested maps and slices are copied too.
// Scalars are shared.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies maps and slices and returns other values unchanged.
func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = CopyValue(val[i])
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

// SetPath assigns value under a dot-separated path, creating intermediate maps.
// An intermediate value that is not a map is replaced by one.
//
//	SetPath(m, "options.timeout", 30) -> m["options"].(map[string]any)["timeout"] = 30
func SetPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// GetPath resolves a dot-separated path. It reports false when any segment is
// missing or an intermediate value is not a map.
func GetPath(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ValidPath reports whether path is non-empty and has no empty segment,
// e.g. "options." and "a..b" are rejected.
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// Head returns the first segment of a dot-separated path.
func Head(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// Normalize rewrites decoded YAML values into the shapes encoding/json
// produces: map[string]any, []any and float64 for every integer kind.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = Normalize(inner)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = Normalize(inner)
		}
		return out
	case []any:
		for i := range val {
			val[i] = Normalize(val[i])
		}
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint64:
		return float64(val)
	case uint:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}
