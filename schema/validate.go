package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// ValidationError reports an argument object that does not satisfy a tool's
// declared schema. Param identifies the offending parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Reason, e.Param)
}

func missingParam(name string) *ValidationError {
	return &ValidationError{Param: name, Reason: "missing required parameter"}
}

func typeMismatch(name string) *ValidationError {
	return &ValidationError{Param: name, Reason: "type mismatch for"}
}

// Validate checks args against the schema and returns a sanitized copy:
// defaults applied for absent optional parameters and unknown keys stripped.
// Unrecognized keys are tolerated rather than rejected so that richer future
// clients keep working against older servers.
//
// args may be nil, which is treated as an empty object. The input map is
// never mutated.
func Validate(s Schema, args map[string]any) (map[string]any, error) {
	sanitized := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		v, present := args[p.Name]
		if !present {
			if p.Required {
				return nil, missingParam(p.Name)
			}
			if p.Default != nil {
				sanitized[p.Name] = p.Default
			}
			continue
		}
		if !typeMatches(p.Type, v) {
			return nil, typeMismatch(p.Name)
		}
		sanitized[p.Name] = v
	}
	return sanitized, nil
}

// typeMatches reports whether a decoded JSON value satisfies the declared
// primitive type. Values arrive through encoding/json, so numbers are
// float64, arrays are []any and objects are map[string]any.
func typeMatches(t Type, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case TypeInteger:
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		case json.Number:
			f, err := n.Float64()
			return err == nil && f == math.Trunc(f)
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		// Unknown declared type: accept rather than reject so that a schema
		// authored against a newer revision does not break older arguments.
		return true
	}
}
