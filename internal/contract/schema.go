package contract

import (
	"sort"
	"strings"
)

// Kind is the closed set of schema node variants
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// ParseKind maps a JSON Schema type name to a Kind
func ParseKind(typeName string) Kind {
	switch strings.ToLower(typeName) {
	case "string":
		return KindString
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindUnknown
	}
}

// Schema is one typed node of a contract's data-shape description.
// Nodes handed out by the Resolver are shared and must be treated as read-only.
type Schema struct {
	Kind       Kind
	Ref        string             // KindRef only
	Properties map[string]*Schema // KindObject only
	Required   []string           // KindObject only
	Items      *Schema            // KindArray only

	Format    string
	Enum      []any
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	Example   any
	Default   any
}

// IsRequired reports whether name is listed in Required
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// PropertyNames returns the property names sorted
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSchema builds a schema node from its decoded JSON form. References
// are kept as KindRef nodes; they are followed lazily through a Resolver.
func ParseSchema(raw map[string]any) *Schema {
	if raw == nil {
		return &Schema{Kind: KindUnknown}
	}

	if ref, ok := raw["$ref"].(string); ok {
		return &Schema{Kind: KindRef, Ref: ref}
	}

	// Composition keywords collapse onto their first member
	for _, key := range []string{"allOf", "oneOf", "anyOf"} {
		if members, ok := raw[key].([]any); ok && len(members) > 0 {
			if first, ok := members[0].(map[string]any); ok && raw["type"] == nil && raw["properties"] == nil {
				return ParseSchema(first)
			}
		}
	}

	s := &Schema{Kind: kindOf(raw)}
	s.Format, _ = raw["format"].(string)
	s.Enum, _ = raw["enum"].([]any)
	s.Example = raw["example"]
	s.Default = raw["default"]
	s.Minimum = floatPtr(raw["minimum"])
	s.Maximum = floatPtr(raw["maximum"])
	s.MinLength = intPtr(raw["minLength"])
	s.MaxLength = intPtr(raw["maxLength"])

	switch s.Kind {
	case KindObject:
		s.Properties = make(map[string]*Schema)
		if props, ok := raw["properties"].(map[string]any); ok {
			for name, p := range props {
				child, _ := p.(map[string]any)
				s.Properties[name] = ParseSchema(child)
			}
		}
		if req, ok := raw["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					s.Required = append(s.Required, name)
				}
			}
		}
	case KindArray:
		items, _ := raw["items"].(map[string]any)
		s.Items = ParseSchema(items)
	}

	return s
}

func kindOf(raw map[string]any) Kind {
	switch t := raw["type"].(type) {
	case string:
		return ParseKind(t)
	case []any:
		// OpenAPI 3.1 type lists, e.g. ["string", "null"]
		for _, v := range t {
			if name, ok := v.(string); ok && name != "null" {
				return ParseKind(name)
			}
		}
	}
	if _, ok := raw["properties"]; ok {
		return KindObject
	}
	if _, ok := raw["items"]; ok {
		return KindArray
	}
	return KindUnknown
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func floatPtr(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func intPtr(v any) *int {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}
