package contract

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refDoc = `{
  "paths": {},
  "definitions": {
    "Money": {
      "type": "object",
      "required": ["amount", "currency"],
      "properties": {
        "amount": {"type": "number"},
        "currency": {"type": "string", "enum": ["USD", "EUR"]}
      }
    },
    "Alias": {"$ref": "#/definitions/Money"},
    "LoopA": {"$ref": "#/definitions/LoopB"},
    "LoopB": {"$ref": "#/definitions/LoopA"},
    "Node": {
      "type": "object",
      "properties": {
        "value": {"type": "integer"},
        "next": {"$ref": "#/definitions/Node"}
      }
    },
    "a/b": {"type": "boolean"},
    "Scalar": 3
  },
  "list": [{"type": "string"}]
}`

func newRefResolver(t *testing.T) *Resolver {
	t.Helper()
	doc, err := Parse([]byte(refDoc))
	require.NoError(t, err)
	return doc.Resolver()
}

func TestResolve_Definition(t *testing.T) {
	r := newRefResolver(t)

	s, err := r.Resolve("#/definitions/Money")
	require.NoError(t, err)

	assert.Equal(t, KindObject, s.Kind)
	assert.ElementsMatch(t, []string{"amount", "currency"}, s.Required)
	assert.Equal(t, KindNumber, s.Properties["amount"].Kind)
	assert.Equal(t, KindString, s.Properties["currency"].Kind)
	assert.Len(t, s.Properties["currency"].Enum, 2)
}

func TestResolve_RoundTrip(t *testing.T) {
	r := newRefResolver(t)

	first, err := r.Resolve("#/definitions/Money")
	require.NoError(t, err)
	second, err := r.Resolve("#/definitions/Money")
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second))

	// A fresh resolver over the same document yields a structurally identical node
	fresh := newRefResolver(t)
	third, err := fresh.Resolve("#/definitions/Money")
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(first, third))
}

func TestResolve_EscapedTokensAndIndexes(t *testing.T) {
	r := newRefResolver(t)

	s, err := r.Resolve("#/definitions/a~1b")
	require.NoError(t, err)
	assert.Equal(t, KindBoolean, s.Kind)

	s, err = r.Resolve("#/list/0")
	require.NoError(t, err)
	assert.Equal(t, KindString, s.Kind)
}

func TestResolve_Failures(t *testing.T) {
	r := newRefResolver(t)

	refs := []string{
		"#/definitions/Missing",
		"http://example.com/schema.json#/Foo",
		"#/definitions/Scalar",
		"#/list/7",
		"#/list/x",
		"#/definitions/Money/type/deeper",
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			_, err := r.Resolve(ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaResolution))

			var sre *SchemaResolutionError
			require.True(t, errors.As(err, &sre))
			assert.Equal(t, ref, sre.Ref)
		})
	}
}

func TestDeref(t *testing.T) {
	r := newRefResolver(t)

	s, err := r.Deref(&Schema{Kind: KindRef, Ref: "#/definitions/Alias"})
	require.NoError(t, err)
	assert.Equal(t, KindObject, s.Kind)

	_, err = r.Deref(&Schema{Kind: KindRef, Ref: "#/definitions/LoopA"})
	assert.ErrorIs(t, err, ErrSchemaResolution)

	plain := &Schema{Kind: KindString}
	s, err = r.Deref(plain)
	require.NoError(t, err)
	assert.Same(t, plain, s)
}

func TestResolve_SelfReferenceIsLazy(t *testing.T) {
	r := newRefResolver(t)

	s, err := r.Resolve("#/definitions/Node")
	require.NoError(t, err)
	next := s.Properties["next"]
	require.NotNil(t, next)
	assert.Equal(t, KindRef, next.Kind)
	assert.Equal(t, "#/definitions/Node", next.Ref)
}

func TestResolve_ConcurrentReaders(t *testing.T) {
	r := newRefResolver(t)

	var wg sync.WaitGroup
	results := make([]*Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve("#/definitions/Money")
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}
