package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a simulated runtime value. The concrete type is always one of
// int64, float64, string, bool, []Value or nil.
type Value = any

// CloneValue deep-copies lists; scalars are returned as-is.
func CloneValue(v Value) Value {
	list, ok := v.([]Value)
	if !ok {
		return v
	}
	out := make([]Value, len(list))
	for i, item := range list {
		out[i] = CloneValue(item)
	}
	return out
}

// CloneVars returns a deep copy of a variable snapshot. A nil map yields an
// empty, non-nil map so snapshots always serialize as objects.
func CloneVars(vars map[string]Value) map[string]Value {
	out := make(map[string]Value, len(vars))
	for k, v := range vars {
		out[k] = CloneValue(v)
	}
	return out
}

// CanonicalJSON renders a value in a form where equal values always produce
// equal text: whole floats collapse to integers and map keys are sorted.
func CanonicalJSON(v Value) string {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ValuesEqual reports deep equality using the canonical JSON form.
func ValuesEqual(a, b Value) bool {
	return CanonicalJSON(a) == CanonicalJSON(b)
}

func normalize(v Value) Value {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case float32:
		return normalize(float64(x))
	case int:
		return int64(x)
	case []Value:
		out := make([]Value, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case map[string]Value:
		out := make(map[string]Value, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	}
	return v
}

// FormatValue renders a value for display in reports and labels.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []Value:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v", v)
}
