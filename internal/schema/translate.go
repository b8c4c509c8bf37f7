package schema

import (
	"strings"

	"github.com/invopop/jsonschema"
)

// Translate converts a vendor schema into generic JSON Schema.
//
// A nil node, or any node with an empty Type, translates to nil. Nested
// malformed nodes are dropped from their parent instead of failing the
// whole translation.
//
// Keywords the jsonschema package has no field for travel in Extras:
// "nullable", and "items" when it holds a list of alternatives.
func Translate(s *Schema) *jsonschema.Schema {
	if s == nil || s.Type == "" {
		return nil
	}

	out := &jsonschema.Schema{
		Type:        kindName(s.Type),
		Description: s.Description,
	}

	if s.Nullable != nil {
		setExtra(out, "nullable", *s.Nullable)
	}

	if s.Enum != nil {
		out.Enum = append([]any{}, s.Enum...)
		if len(out.Enum) == 0 {
			setExtra(out, "enum", []any{})
		}
	}

	switch out.Type {
	case "array":
		if s.AnyItems != nil {
			items := []*jsonschema.Schema{}
			for _, item := range s.AnyItems {
				if t := Translate(item); t != nil {
					items = append(items, t)
				}
			}
			setExtra(out, "items", items)
		} else if s.Items != nil {
			out.Items = Translate(s.Items)
		}

	case "object":
		if s.Properties != nil {
			out.Properties = jsonschema.NewProperties()
			for _, p := range s.Properties {
				if t := Translate(p.Schema); t != nil {
					out.Properties.Set(p.Name, t)
				}
			}
		}
		if s.Required != nil {
			out.Required = append([]string{}, s.Required...)
			if len(out.Required) == 0 {
				setExtra(out, "required", []string{})
			}
		}
	}

	return out
}

// setExtra records a keyword outside the typed fields. Empty enum and
// required lists also go here since the typed fields omit them.
func setExtra(s *jsonschema.Schema, key string, value any) {
	if s.Extras == nil {
		s.Extras = make(map[string]any)
	}
	s.Extras[key] = value
}

// kindName maps a vendor kind label to a JSON Schema primitive. The checks
// run in a fixed order, so "INTEGER_NUMBER" is an integer.
func kindName(t Type) string {
	normalized := strings.ToLower(string(t))
	switch {
	case strings.Contains(normalized, "object"):
		return "object"
	case strings.Contains(normalized, "array"):
		return "array"
	case strings.Contains(normalized, "integer"):
		return "integer"
	case strings.Contains(normalized, "number"), strings.Contains(normalized, "double"):
		return "number"
	case strings.Contains(normalized, "boolean"):
		return "boolean"
	default:
		return "string"
	}
}
