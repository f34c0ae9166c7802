// Package schema models the declared input shape of a tool and validates
// caller-supplied argument objects against it ahead of invocation.
//
// A Schema is an ordered list of parameter declarations. Order is preserved
// through JSON marshaling so that capability listings are stable for
// deterministic client-side display. Validation is pure: it never mutates the
// caller's argument map and returns a sanitized copy with defaults applied
// and unknown keys stripped.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Type enumerates the primitive runtime types a parameter may declare.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Param declares a single named tool parameter.
type Param struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	// Default is substituted for absent optional parameters. It is ignored
	// for required parameters.
	Default any
}

// Schema is the ordered set of parameters a tool declares. The zero value is
// a valid empty schema that accepts any argument object and sanitizes it to
// an empty map.
type Schema struct {
	Params []Param
}

// Object builds a Schema from parameter declarations, preserving order.
func Object(params ...Param) Schema {
	return Schema{Params: params}
}

// Param returns the declaration for name, if present.
func (s Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// MarshalJSON renders the schema in the wire form clients expect:
//
//	{"type":"object","properties":{...},"required":[...]}
//
// Properties are emitted in declaration order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	for i, p := range s.Params {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		pb, err := json.Marshal(prop)
		if err != nil {
			return nil, err
		}
		buf.Write(pb)
	}
	buf.WriteByte('}')
	var required []string
	for _, p := range s.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(required) > 0 {
		buf.WriteString(`,"required":`)
		rb, err := json.Marshal(required)
		if err != nil {
			return nil, err
		}
		buf.Write(rb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON. Parameter
// order is recovered from the key order of the properties object, so a
// marshal/unmarshal round trip preserves declaration order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	required := make(map[string]bool, len(raw.Required))
	for _, name := range raw.Required {
		required[name] = true
	}
	var props map[string]json.RawMessage
	if len(raw.Properties) > 0 {
		if err := json.Unmarshal(raw.Properties, &props); err != nil {
			return err
		}
	}
	// Recover declaration order by walking the raw properties object's
	// top-level keys in token order.
	names := orderedKeys(raw.Properties)
	params := make([]Param, 0, len(names))
	for _, name := range names {
		var prop struct {
			Type        string `json:"type"`
			Description string `json:"description"`
			Default     any    `json:"default"`
		}
		if err := json.Unmarshal(props[name], &prop); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		params = append(params, Param{
			Name:        name,
			Type:        Type(prop.Type),
			Description: prop.Description,
			Required:    required[name],
			Default:     prop.Default,
		})
	}
	s.Params = params
	return nil
}

// orderedKeys returns the top-level key names of a raw JSON object in their
// order of appearance. Only keys of the object itself count; names occurring
// inside nested values are never mistaken for keys.
func orderedKeys(object json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(object))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	var names []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return names
		}
		name, ok := tok.(string)
		if !ok {
			return names
		}
		names = append(names, name)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return names
		}
	}
	return names
}
