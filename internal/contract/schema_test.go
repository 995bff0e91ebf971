package contract

import "testing"

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"string":  KindString,
		"integer": KindInteger,
		"number":  KindNumber,
		"boolean": KindBoolean,
		"array":   KindArray,
		"object":  KindObject,
		"OBJECT":  KindObject,
		"file":    KindUnknown,
		"":        KindUnknown,
	}
	for name, want := range tests {
		if got := ParseKind(name); got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if KindRef.String() != "ref" {
		t.Errorf("KindRef.String() = %s", KindRef.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %s", Kind(99).String())
	}
}

func TestParseSchema_InfersKind(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"no type", map[string]any{"description": "x"}, KindUnknown},
		{"properties only", map[string]any{"properties": map[string]any{}}, KindObject},
		{"items only", map[string]any{"items": map[string]any{"type": "string"}}, KindArray},
		{"type list", map[string]any{"type": []any{"null", "integer"}}, KindInteger},
		{"ref", map[string]any{"$ref": "#/definitions/X", "type": "string"}, KindRef},
		{"oneOf", map[string]any{"oneOf": []any{map[string]any{"type": "number"}}}, KindNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSchema(tt.raw).Kind; got != tt.want {
				t.Errorf("Kind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSchema_Constraints(t *testing.T) {
	s := ParseSchema(map[string]any{
		"type":      "string",
		"format":    "email",
		"minLength": float64(3),
		"maxLength": 10,
		"minimum":   1,
		"maximum":   2.5,
		"example":   "a@b.co",
		"default":   "x@y.co",
	})

	if s.Format != "email" {
		t.Errorf("Format = %s, want email", s.Format)
	}
	if s.MinLength == nil || *s.MinLength != 3 {
		t.Errorf("MinLength = %v, want 3", s.MinLength)
	}
	if s.MaxLength == nil || *s.MaxLength != 10 {
		t.Errorf("MaxLength = %v, want 10", s.MaxLength)
	}
	if s.Minimum == nil || *s.Minimum != 1 {
		t.Errorf("Minimum = %v, want 1", s.Minimum)
	}
	if s.Maximum == nil || *s.Maximum != 2.5 {
		t.Errorf("Maximum = %v, want 2.5", s.Maximum)
	}
	if s.Example != "a@b.co" || s.Default != "x@y.co" {
		t.Errorf("Example/Default = %v/%v", s.Example, s.Default)
	}
}

func TestParseSchema_Object(t *testing.T) {
	s := ParseSchema(map[string]any{
		"type":     "object",
		"required": []any{"b", 7},
		"properties": map[string]any{
			"b": map[string]any{"type": "string"},
			"a": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
	})

	if len(s.Required) != 1 || !s.IsRequired("b") || s.IsRequired("a") {
		t.Errorf("Required = %v, want [b]", s.Required)
	}
	names := s.PropertyNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("PropertyNames() = %v, want [a b]", names)
	}
	if s.Properties["a"].Items.Kind != KindInteger {
		t.Errorf("items kind = %v, want integer", s.Properties["a"].Items.Kind)
	}
}
