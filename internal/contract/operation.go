package contract

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// Operation is one (path, method) pair declared by a contract
type Operation struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	OperationID string `json:"operation_id,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`

	raw    map[string]any
	shared []any
}

// Parameter is a resolved operation parameter
type Parameter struct {
	Name     string  `json:"name"`
	In       string  `json:"in"` // path, query, header, cookie, body
	Required bool    `json:"required"`
	Schema   *Schema `json:"-"`
}

func newOperation(path, method string, raw map[string]any, shared []any) Operation {
	op := Operation{
		Path:   path,
		Method: method,
		raw:    raw,
		shared: shared,
	}
	op.OperationID, _ = raw["operationId"].(string)
	op.Summary, _ = raw["summary"].(string)
	op.Description, _ = raw["description"].(string)
	return op
}

// Key identifies the operation, e.g. "POST /payments"
func (op Operation) Key() string {
	return op.Method + " " + op.Path
}

// Title is the human readable label used in test case descriptions
func (op Operation) Title() string {
	switch {
	case op.Summary != "":
		return op.Summary
	case op.Description != "":
		return op.Description
	case op.OperationID != "":
		return op.OperationID
	default:
		return op.Key()
	}
}

// Parameters returns path-level and operation-level parameters with $refs
// resolved; an operation parameter overrides a path parameter with the same
// name and location.
func (r *Resolver) Parameters(op Operation) ([]Parameter, error) {
	own, _ := op.raw["parameters"].([]any)

	byKey := make(map[string]Parameter)
	var order []string
	for _, list := range [][]any{op.shared, own} {
		for _, item := range list {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raw, err := r.derefRaw(raw)
			if err != nil {
				return nil, err
			}

			p := Parameter{}
			p.Name, _ = raw["name"].(string)
			p.In, _ = raw["in"].(string)
			p.Required, _ = raw["required"].(bool)
			if schema, ok := raw["schema"].(map[string]any); ok {
				p.Schema = ParseSchema(schema)
			} else if _, ok := raw["type"]; ok {
				// Swagger 2 puts the type on the parameter itself
				p.Schema = ParseSchema(raw)
			}
			if p.In == "path" {
				p.Required = true
			}

			key := p.In + ":" + p.Name
			if _, seen := byKey[key]; !seen {
				order = append(order, key)
			}
			byKey[key] = p
		}
	}

	params := make([]Parameter, 0, len(order))
	for _, key := range order {
		params = append(params, byKey[key])
	}
	return params, nil
}

// RequestBody returns the JSON request body schema of an operation, or nil
// when it declares none. The returned node may be a KindRef.
func (r *Resolver) RequestBody(op Operation) (*Schema, error) {
	if body, ok := op.raw["requestBody"].(map[string]any); ok {
		body, err := r.derefRaw(body)
		if err != nil {
			return nil, err
		}
		content, _ := body["content"].(map[string]any)
		media := jsonMedia(content)
		if media == nil {
			return nil, nil
		}
		schema, ok := media["schema"].(map[string]any)
		if !ok || len(schema) == 0 {
			return nil, nil
		}
		return ParseSchema(schema), nil
	}

	params, err := r.Parameters(op)
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		if p.In == "body" && p.Schema != nil {
			return p.Schema, nil
		}
	}
	return nil, nil
}

func jsonMedia(content map[string]any) map[string]any {
	if m, ok := content["application/json"].(map[string]any); ok {
		return m
	}
	types := make([]string, 0, len(content))
	for t := range content {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		if strings.Contains(t, "json") {
			m, _ := content[t].(map[string]any)
			return m
		}
	}
	return nil
}

// ExpectedStatus returns the lowest declared 2xx response code, or 200
func (op Operation) ExpectedStatus() int {
	responses, _ := op.raw["responses"].(map[string]any)
	best := 0
	for code := range responses {
		n, err := strconv.Atoi(code)
		if err != nil || n < 200 || n > 299 {
			continue
		}
		if best == 0 || n < best {
			best = n
		}
	}
	if best == 0 {
		return http.StatusOK
	}
	return best
}
