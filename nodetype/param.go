package nodetype

import (
	"fmt"
	"math"
	"strings"
)

// checkValue verifies v against the declared type and enum of spec.
func checkValue(spec ParamSpec, v any) error {
	if err := checkType(spec.Type, v); err != nil {
		return err
	}
	if len(spec.Enum) == 0 {
		return nil
	}
	got := fmt.Sprint(v)
	allowed := make([]string, len(spec.Enum))
	for i, e := range spec.Enum {
		allowed[i] = fmt.Sprint(e)
		if allowed[i] == got {
			return nil
		}
	}
	return fmt.Errorf("value %q is not one of [%s]", got, strings.Join(allowed, ", "))
}

func checkType(t ParamType, v any) error {
	switch t {
	case "", ParamAny:
		return nil
	case ParamString:
		if _, ok := v.(string); ok {
			return nil
		}
	case ParamBoolean:
		if _, ok := v.(bool); ok {
			return nil
		}
	case ParamNumber:
		if _, ok := toFloat(v); ok {
			return nil
		}
	case ParamInteger:
		if f, ok := toFloat(v); ok && f == math.Trunc(f) {
			return nil
		}
	case ParamObject:
		if _, ok := v.(map[string]any); ok {
			return nil
		}
	case ParamArray:
		switch v.(type) {
		case []any, []string, []map[string]any:
			return nil
		}
	default:
		return fmt.Errorf("unsupported parameter type %q", t)
	}
	return fmt.Errorf("expected %s, got %s", t, describe(v))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any, []string:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
