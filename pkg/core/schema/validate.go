package schema

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrNilValue         = errors.New("nil value")
)

// ValidationError reports the first field that failed a schema check.
// Path is index and dot qualified, e.g. "conversationHistory[2].role".
type ValidationError struct {
	Path string
	Err  error // one of the Err* sentinels
	Want string
	Got  string
}

func (e *ValidationError) Error() string {
	switch e.Err {
	case ErrMissingField:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case ErrInvalidEnumValue:
		return fmt.Sprintf("%s: %v %q, want one of %s", e.Path, e.Err, e.Got, e.Want)
	case ErrNilValue:
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v, want %s, got %s", e.Path, e.Err, e.Want, e.Got)
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks value against s and returns a copy holding only the declared
// fields. Undeclared fields are ignored. A nil value for an optional field counts
// as absent. Arrays are checked element by element and the first failing element
// fails the whole value.
func Validate(value map[string]any, s *FlowSchema) (map[string]any, error) {
	return object(value, s, "")
}

// Coerce narrows untyped provider output to s. Unknown fields are dropped at every
// level, a missing required field is an error, and no value is converted across
// kinds: "true" is not a boolean and 1 is not a string.
func Coerce(raw map[string]any, s *FlowSchema) (map[string]any, error) {
	if raw == nil {
		return nil, &ValidationError{Err: ErrNilValue}
	}
	return object(raw, s, "")
}

func object(value map[string]any, s *FlowSchema, prefix string) (map[string]any, error) {
	out := make(map[string]any, s.Len())
	for _, f := range s.Fields() {
		path := join(prefix, f.Name)
		v, ok := value[f.Name]
		if !ok || v == nil {
			if f.Required {
				return nil, &ValidationError{Path: path, Err: ErrMissingField}
			}
			continue
		}
		checked, err := check(v, f.Type, path)
		if err != nil {
			return nil, err
		}
		out[f.Name] = checked
	}
	return out, nil
}

func check(v any, t Type, path string) (any, error) {
	switch t.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, t, v)
		}
		return s, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(path, t, v)
		}
		return b, nil
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, t, v)
		}
		if !t.allows(s) {
			return nil, &ValidationError{Path: path, Err: ErrInvalidEnumValue, Want: t.String(), Got: s}
		}
		return s, nil
	case KindArray:
		items, ok := asSlice(v)
		if !ok {
			return nil, mismatch(path, t, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			elemPath := path + "[" + strconv.Itoa(i) + "]"
			if item == nil {
				return nil, &ValidationError{Path: elemPath, Err: ErrMissingField}
			}
			checked, err := check(item, *t.Elem, elemPath)
			if err != nil {
				return nil, err
			}
			out[i] = checked
		}
		return out, nil
	case KindObject:
		m, ok := asMap(v)
		if !ok {
			return nil, mismatch(path, t, v)
		}
		return object(m, t.Fields, path)
	}
	return nil, mismatch(path, t, v)
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func mismatch(path string, t Type, v any) error {
	return &ValidationError{Path: path, Err: ErrTypeMismatch, Want: t.String(), Got: typeName(v)}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any, []map[string]any, []string:
		return "array"
	case map[string]any, map[string]string:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
