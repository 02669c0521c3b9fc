package schema

import (
	"encoding/json"
)

// JSONSchema returns a JSON-Schema (draft-07 subset) document for s. Properties
// are emitted as a map, so the "required" list and "propertyOrdering" carry the
// declaration order.
func JSONSchema(s *FlowSchema) map[string]any {
	props := make(map[string]any, s.Len())
	required := []string{}
	for _, f := range s.Fields() {
		p := typeSchema(f.Type)
		if f.Description != "" {
			p["description"] = f.Description
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"propertyOrdering":     s.Names(),
		"additionalProperties": false,
	}
}

func typeSchema(t Type) map[string]any {
	switch t.Kind {
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindEnum:
		return map[string]any{"type": "string", "enum": append([]string(nil), t.Values...)}
	case KindArray:
		return map[string]any{"type": "array", "items": typeSchema(*t.Elem)}
	case KindObject:
		return JSONSchema(t.Fields)
	default:
		return map[string]any{"type": "string"}
	}
}

// Describe renders JSONSchema(s) as indented JSON text for inclusion in a prompt.
func Describe(s *FlowSchema) string {
	data, err := json.MarshalIndent(JSONSchema(s), "", "  ")
	if err != nil {
		// only maps, slices and strings are marshalled
		return "{}"
	}
	return string(data)
}
