// Package schema models the vendor-flavored response schema that callers
// attach to a generation request and translates it into plain JSON Schema for
// backends that only understand the standard vocabulary.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Type is the vendor kind label of a node, e.g. "OBJECT" or "INTEGER".
// An empty Type marks a malformed node.
type Type string

const (
	TypeObject  Type = "OBJECT"
	TypeArray   Type = "ARRAY"
	TypeString  Type = "STRING"
	TypeInteger Type = "INTEGER"
	TypeNumber  Type = "NUMBER"
	TypeBoolean Type = "BOOLEAN"
)

// Schema is one node of a vendor response schema.
//
// Items and AnyItems are only meaningful for arrays: Items holds a single
// item schema, AnyItems a heterogeneous list. Properties and Required are
// only meaningful for objects. Properties keep their declaration order.
type Schema struct {
	Type        Type
	Description string
	Items       *Schema
	AnyItems    []*Schema
	Properties  []Property
	Required    []string
	Enum        []any
	Nullable    *bool
}

// Property is a named child of an object node.
type Property struct {
	Name   string
	Schema *Schema
}

// Property looks up a child by name.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// Parse decodes a schema document. Object keys keep their document order.
// A document that is valid JSON but not an object yields a nil schema.
func Parse(data []byte) (*Schema, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("schema: invalid JSON document")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// UnmarshalJSON implements json.Unmarshaler on top of Parse.
func (s *Schema) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	if parsed == nil {
		*s = Schema{}
		return nil
	}
	*s = *parsed
	return nil
}

func fromResult(r gjson.Result) *Schema {
	if !r.IsObject() {
		return nil
	}

	s := &Schema{Type: kindOf(r.Get("type"))}

	if d := r.Get("description"); d.Type == gjson.String {
		s.Description = d.String()
	}

	if n := r.Get("nullable"); n.IsBool() {
		v := n.Bool()
		s.Nullable = &v
	}

	if e := r.Get("enum"); e.IsArray() {
		s.Enum = []any{}
		for _, v := range e.Array() {
			s.Enum = append(s.Enum, enumValue(v))
		}
	}

	if items := r.Get("items"); items.IsArray() {
		s.AnyItems = []*Schema{}
		for _, item := range items.Array() {
			s.AnyItems = append(s.AnyItems, fromResult(item))
		}
	} else if items.Exists() {
		s.Items = fromResult(items)
	}

	if props := r.Get("properties"); props.IsObject() {
		s.Properties = []Property{}
		seen := make(map[string]int)
		props.ForEach(func(key, value gjson.Result) bool {
			p := Property{Name: key.String(), Schema: fromResult(value)}
			// a repeated key replaces the earlier value in place
			if i, ok := seen[p.Name]; ok {
				s.Properties[i] = p
				return true
			}
			seen[p.Name] = len(s.Properties)
			s.Properties = append(s.Properties, p)
			return true
		})
	}

	if req := r.Get("required"); req.IsArray() {
		s.Required = []string{}
		for _, v := range req.Array() {
			s.Required = append(s.Required, v.String())
		}
	}

	return s
}

// enumValue keeps an enum member as written. Numbers stay json.Number so
// that large integers survive unchanged.
func enumValue(v gjson.Result) any {
	if v.Type == gjson.Number {
		return json.Number(v.Raw)
	}
	return v.Value()
}

// kindOf reads the "type" member; falsy values collapse to the empty Type.
func kindOf(t gjson.Result) Type {
	switch t.Type {
	case gjson.String:
		return Type(t.Str)
	case gjson.Number:
		if t.Num == 0 {
			return ""
		}
		return Type(t.Raw)
	case gjson.True:
		return Type("true")
	case gjson.JSON:
		return Type(t.Raw)
	default:
		return ""
	}
}
