package contract

import (
	"strconv"
	"strings"
	"sync"
)

// Resolver dereferences local JSON pointers ("#/definitions/Foo") against a
// document. Parsed nodes are cached; the cache is safe for concurrent readers.
type Resolver struct {
	root map[string]any

	mu    sync.RWMutex
	cache map[string]*Schema
}

// NewResolver creates a resolver over a decoded document tree
func NewResolver(root map[string]any) *Resolver {
	return &Resolver{
		root:  root,
		cache: make(map[string]*Schema),
	}
}

// Resolve returns the schema node a pointer designates. Resolving the same
// pointer twice returns the same node.
func (r *Resolver) Resolve(ref string) (*Schema, error) {
	r.mu.RLock()
	cached, ok := r.cache[ref]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	raw, err := r.ResolveRaw(ref)
	if err != nil {
		return nil, err
	}
	s := ParseSchema(raw)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[ref]; ok {
		return existing, nil
	}
	r.cache[ref] = s
	return s, nil
}

// ResolveRaw walks a pointer through nested mappings and returns the
// decoded mapping it designates
func (r *Resolver) ResolveRaw(ref string) (map[string]any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, &SchemaResolutionError{Ref: ref, Reason: "only local references are supported"}
	}

	var node any = r.root
	for _, token := range strings.Split(ref[2:], "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch cur := node.(type) {
		case map[string]any:
			next, ok := cur[token]
			if !ok {
				return nil, &SchemaResolutionError{Ref: ref, Reason: "no entry " + strconv.Quote(token)}
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(cur) {
				return nil, &SchemaResolutionError{Ref: ref, Reason: "bad index " + strconv.Quote(token)}
			}
			node = cur[idx]
		default:
			return nil, &SchemaResolutionError{Ref: ref, Reason: "cannot descend into " + strconv.Quote(token)}
		}
	}

	m, ok := node.(map[string]any)
	if !ok {
		return nil, &SchemaResolutionError{Ref: ref, Reason: "target is not a mapping"}
	}
	return m, nil
}

// Deref follows a chain of reference nodes to the first concrete node. A
// chain that comes back to a pointer it already visited is rejected.
func (r *Resolver) Deref(s *Schema) (*Schema, error) {
	seen := make(map[string]bool)
	for s != nil && s.Kind == KindRef {
		if seen[s.Ref] {
			return nil, &SchemaResolutionError{Ref: s.Ref, Reason: "reference chain loops"}
		}
		seen[s.Ref] = true

		next, err := r.Resolve(s.Ref)
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

// derefRaw follows "$ref" on raw mappings such as parameters and request bodies
func (r *Resolver) derefRaw(raw map[string]any) (map[string]any, error) {
	seen := make(map[string]bool)
	for {
		ref, ok := raw["$ref"].(string)
		if !ok {
			return raw, nil
		}
		if seen[ref] {
			return nil, &SchemaResolutionError{Ref: ref, Reason: "reference chain loops"}
		}
		seen[ref] = true

		next, err := r.ResolveRaw(ref)
		if err != nil {
			return nil, err
		}
		raw = next
	}
}
