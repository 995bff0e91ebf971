package contract

import (
	"fmt"
	"reflect"
)

// Violation describes a value that does not conform to its schema
type Violation struct {
	Path     string `json:"path"` // JSON path to violation
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message"`
}

// Validate checks a value against a schema and returns every type
// violation. References are followed through the resolver; a reference that
// is already being validated higher up the tree is not descended into again.
func Validate(r *Resolver, schema *Schema, data any) ([]Violation, error) {
	v := &validation{resolver: r, active: make(map[string]bool)}
	if err := v.check("$", schema, data); err != nil {
		return nil, err
	}
	return v.violations, nil
}

type validation struct {
	resolver   *Resolver
	active     map[string]bool
	violations []Violation
}

func (v *validation) add(path, expected string, data any, msg string) {
	v.violations = append(v.violations, Violation{
		Path:     path,
		Expected: expected,
		Actual:   fmt.Sprintf("%T", data),
		Message:  msg,
	})
}

func (v *validation) check(path string, schema *Schema, data any) error {
	if schema == nil || data == nil {
		return nil
	}

	switch schema.Kind {
	case KindRef:
		if v.active[schema.Ref] {
			return nil
		}
		target, err := v.resolver.Resolve(schema.Ref)
		if err != nil {
			return err
		}
		v.active[schema.Ref] = true
		defer delete(v.active, schema.Ref)
		return v.check(path, target, data)

	case KindObject:
		obj, ok := data.(map[string]any)
		if !ok {
			v.add(path, "object", data, "Expected object type")
			return nil
		}
		for _, req := range schema.Required {
			if _, exists := obj[req]; !exists {
				v.violations = append(v.violations, Violation{
					Path:     path + "." + req,
					Expected: "present",
					Actual:   "missing",
					Message:  fmt.Sprintf("Required field '%s' is missing", req),
				})
			}
		}
		for _, name := range schema.PropertyNames() {
			if propData, exists := obj[name]; exists {
				if err := v.check(path+"."+name, schema.Properties[name], propData); err != nil {
					return err
				}
			}
		}

	case KindArray:
		arr, ok := data.([]any)
		if !ok {
			v.add(path, "array", data, "Expected array type")
			return nil
		}
		for i, item := range arr {
			if err := v.check(fmt.Sprintf("%s[%d]", path, i), schema.Items, item); err != nil {
				return err
			}
		}

	case KindString:
		if _, ok := data.(string); !ok {
			v.add(path, "string", data, "Expected string type")
		}

	case KindInteger:
		f, ok := toFloat(data)
		if !ok || f != float64(int64(f)) {
			v.add(path, "integer", data, "Expected integer type")
		}

	case KindNumber:
		if _, ok := toFloat(data); !ok {
			v.add(path, "number", data, "Expected number type")
		}

	case KindBoolean:
		if _, ok := data.(bool); !ok {
			v.add(path, "boolean", data, "Expected boolean type")
		}
	}

	if len(schema.Enum) > 0 {
		found := false
		for _, enumVal := range schema.Enum {
			if reflect.DeepEqual(data, enumVal) {
				found = true
				break
			}
		}
		if !found {
			v.violations = append(v.violations, Violation{
				Path:     path,
				Expected: fmt.Sprintf("one of %v", schema.Enum),
				Actual:   fmt.Sprintf("%v", data),
				Message:  "Value not in enum",
			})
		}
	}

	return nil
}
