// Package schema describes the shape of flow inputs and outputs as plain data.
// A FlowSchema is an ordered list of named fields; it is interpreted at runtime by
// Validate (caller input) and Coerce (provider output).
package schema

import (
	"fmt"
	"strings"
)

// Kind identifies the value type a field holds.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindEnum
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type is the kind of a value plus whatever the kind needs to be checked:
// the allowed values of an enum, the element type of an array, the fields of an object.
type Type struct {
	Kind   Kind
	Values []string    // KindEnum
	Elem   *Type       // KindArray
	Fields *FlowSchema // KindObject
}

// String, Bool, Enum, Array and Object build field types.
func String() Type { return Type{Kind: KindString} }

func Bool() Type { return Type{Kind: KindBool} }

func Enum(values ...string) Type {
	return Type{Kind: KindEnum, Values: append([]string(nil), values...)}
}

func Array(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

func Object(fields *FlowSchema) Type {
	return Type{Kind: KindObject, Fields: fields}
}

func (t Type) String() string {
	switch t.Kind {
	case KindEnum:
		return "enum(" + strings.Join(t.Values, ",") + ")"
	case KindArray:
		if t.Elem == nil {
			return "array"
		}
		return "array<" + t.Elem.String() + ">"
	default:
		return t.Kind.String()
	}
}

func (t Type) allows(value string) bool {
	for _, v := range t.Values {
		if v == value {
			return true
		}
	}
	return false
}

// FieldSchema describes one named field.
type FieldSchema struct {
	Name        string
	Type        Type
	Required    bool
	Description string
}

// Field is a shorthand for a required field.
func Field(name string, t Type, description string) FieldSchema {
	return FieldSchema{Name: name, Type: t, Required: true, Description: description}
}

// Optional is a shorthand for a field that may be absent.
func Optional(name string, t Type, description string) FieldSchema {
	return FieldSchema{Name: name, Type: t, Description: description}
}

// FlowSchema is an ordered set of fields keyed by name. Declaration order is kept
// so that error messages and provider schema descriptions are deterministic.
type FlowSchema struct {
	fields []FieldSchema
	index  map[string]int
}

// New builds a schema from fields in declaration order. Field names must be unique
// within the schema; nested object schemas are checked when they are built.
func New(fields ...FieldSchema) (*FlowSchema, error) {
	s := &FlowSchema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema: field name cannot be empty")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		if err := checkType(f.Name, f.Type); err != nil {
			return nil, err
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for static declarations.
func MustNew(fields ...FieldSchema) *FlowSchema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkType(name string, t Type) error {
	switch t.Kind {
	case KindString, KindBool:
		return nil
	case KindEnum:
		if len(t.Values) == 0 {
			return fmt.Errorf("schema: enum field %q has no values", name)
		}
	case KindArray:
		if t.Elem == nil {
			return fmt.Errorf("schema: array field %q has no element type", name)
		}
		return checkType(name+"[]", *t.Elem)
	case KindObject:
		if t.Fields == nil {
			return fmt.Errorf("schema: object field %q has no fields", name)
		}
	default:
		return fmt.Errorf("schema: field %q has unknown kind %d", name, int(t.Kind))
	}
	return nil
}

// Fields returns the fields in declaration order.
func (s *FlowSchema) Fields() []FieldSchema {
	if s == nil {
		return nil
	}
	return append([]FieldSchema(nil), s.fields...)
}

// Lookup returns the named field.
func (s *FlowSchema) Lookup(name string) (FieldSchema, bool) {
	if s == nil {
		return FieldSchema{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return FieldSchema{}, false
	}
	return s.fields[i], true
}

// Names returns the field names in declaration order.
func (s *FlowSchema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of declared fields.
func (s *FlowSchema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// String renders the schema as `{name: kind, name?: kind}`.
func (s *FlowSchema) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, f := range s.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		if !f.Required {
			b.WriteString("?")
		}
		b.WriteString(": ")
		if f.Type.Kind == KindObject {
			b.WriteString(f.Type.Fields.String())
		} else if f.Type.Kind == KindArray && f.Type.Elem != nil && f.Type.Elem.Kind == KindObject {
			b.WriteString("array<" + f.Type.Elem.Fields.String() + ">")
		} else {
			b.WriteString(f.Type.String())
		}
	}
	b.WriteString("}")
	return b.String()
}
