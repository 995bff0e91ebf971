package datagen

import (
	"testing"

	"github.com/QTest-hq/riskgen/internal/contract"
)

func TestEdgeCases(t *testing.T) {
	tests := []struct {
		kind  contract.Kind
		count int
	}{
		{contract.KindString, 4},
		{contract.KindInteger, 3},
		{contract.KindNumber, 3},
		{contract.KindArray, 2},
		{contract.KindObject, 2},
		{contract.KindBoolean, 0},
		{contract.KindRef, 0},
		{contract.KindUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := len(EdgeCases(tt.kind)); got != tt.count {
				t.Errorf("len(EdgeCases(%s)) = %d, want %d", tt.kind, got, tt.count)
			}
		})
	}
}

func TestEdgeCases_StringValues(t *testing.T) {
	cases := EdgeCases(contract.KindString)

	if cases[0] != "" {
		t.Errorf("first string edge case = %q, want empty", cases[0])
	}
	if long := cases[1].(string); len(long) != 1000 {
		t.Errorf("long string edge case has length %d, want 1000", len(long))
	}
	if cases[3] != "null" {
		t.Errorf("last string edge case = %v, want the text null", cases[3])
	}
}

func TestEdgeCases_ArrayIncludesEmpty(t *testing.T) {
	cases := EdgeCases(contract.KindArray)

	empty, ok := cases[0].([]any)
	if !ok || len(empty) != 0 {
		t.Errorf("EdgeCases(array)[0] = %v, want empty array", cases[0])
	}
	withNull, ok := cases[1].([]any)
	if !ok || len(withNull) != 1 || withNull[0] != nil {
		t.Errorf("EdgeCases(array)[1] = %v, want [null]", cases[1])
	}
}

func TestEdgeCases_FreshAllocation(t *testing.T) {
	first := EdgeCases(contract.KindObject)
	first[1].(map[string]any)["key"] = "mutated"

	second := EdgeCases(contract.KindObject)
	if second[1].(map[string]any)["key"] != nil {
		t.Error("EdgeCases() returned shared state across calls")
	}
}
