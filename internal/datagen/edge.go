package datagen

import (
	"strings"

	"github.com/QTest-hq/riskgen/internal/contract"
)

// EdgeCases returns the boundary values probed for a node kind. The list is
// fixed per kind and freshly allocated on every call. Booleans, references
// and untyped nodes have none; callers dereference before asking.
func EdgeCases(kind contract.Kind) []any {
	switch kind {
	case contract.KindString:
		return []any{
			"",                        // empty
			strings.Repeat("a", 1000), // very long
			"!@#$%^&*()",              // special characters
			"null",                    // the literal text null
		}
	case contract.KindInteger:
		return []any{0, -1, 999999999}
	case contract.KindNumber:
		return []any{0.0, -1.0, 999999.999}
	case contract.KindArray:
		return []any{[]any{}, []any{nil}}
	case contract.KindObject:
		return []any{map[string]any{}, map[string]any{"key": nil}}
	default:
		return nil
	}
}
