// Package contract loads API contract documents (OpenAPI 3 / Swagger 2) and
// resolves their schemas into typed trees.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSchemaResolution is matched by every *SchemaResolutionError
var ErrSchemaResolution = errors.New("schema resolution failed")

// ErrMalformedDocument is matched by every *MalformedDocumentError
var ErrMalformedDocument = errors.New("malformed contract document")

// SchemaResolutionError reports a $ref that could not be dereferenced.
// It is recoverable: only the operation that needed the reference is skipped.
type SchemaResolutionError struct {
	Ref    string
	Reason string
}

func (e *SchemaResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.Ref, e.Reason)
}

func (e *SchemaResolutionError) Is(target error) bool {
	return target == ErrSchemaResolution
}

// MalformedDocumentError reports a contract that is not valid structured data.
// It aborts the whole synthesis run.
type MalformedDocumentError struct {
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed contract document: %s: %v", e.Reason, e.Err)
	}
	return "malformed contract document: " + e.Reason
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// HTTP methods a test case can carry, in the order operations are emitted
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Document is a parsed contract
type Document struct {
	raw      map[string]any
	paths    map[string]any
	resolver *Resolver
}

// Load reads and parses a contract file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON or YAML contract document
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedDocumentError{Reason: "empty document"}
	}

	var decoded any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &decoded); err != nil {
			return nil, &MalformedDocumentError{Reason: "invalid JSON", Err: err}
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &decoded); err != nil {
			return nil, &MalformedDocumentError{Reason: "invalid YAML", Err: err}
		}
	}

	root, ok := normalize(decoded).(map[string]any)
	if !ok {
		return nil, &MalformedDocumentError{Reason: "top level is not a mapping"}
	}
	paths, ok := root["paths"].(map[string]any)
	if !ok {
		return nil, &MalformedDocumentError{Reason: "missing paths mapping"}
	}

	doc := &Document{raw: root, paths: paths}
	doc.resolver = NewResolver(root)
	return doc, nil
}

// Resolver returns the document-wide reference resolver
func (d *Document) Resolver() *Resolver {
	return d.resolver
}

// Raw returns the decoded document tree. Callers must not modify it.
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Operations lists every (path, method) pair, paths sorted, methods in
// Methods order. Path item keys that are not test case methods are ignored.
func (d *Document) Operations() []Operation {
	paths := make([]string, 0, len(d.paths))
	for p := range d.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var ops []Operation
	for _, p := range paths {
		item, ok := d.paths[p].(map[string]any)
		if !ok {
			continue
		}
		shared, _ := item["parameters"].([]any)

		methods := make(map[string]map[string]any)
		for key, v := range item {
			if body, ok := v.(map[string]any); ok {
				methods[strings.ToUpper(key)] = body
			}
		}

		for _, m := range Methods {
			body, ok := methods[m]
			if !ok {
				continue
			}
			ops = append(ops, newOperation(p, m, body, shared))
		}
	}
	return ops
}

// normalize turns YAML's map[any]any into map[string]any all the way down
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}
