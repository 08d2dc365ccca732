package ir

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(1.5)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestIRObjectSortedKeysUTF16(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before U+E000.
	obj := IRObject{"\uE000": IRInt(1), "\U00010000": IRInt(2)}

	assert.Equal(t, []string{"\U00010000", "\uE000"}, obj.SortedKeys())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "NULL", TypeName(IRNull{}))
	assert.Equal(t, "STRING", TypeName(IRString("x")))
	assert.Equal(t, "NUMBER", TypeName(IRInt(1)))
	assert.Equal(t, "NUMBER", TypeName(IRFloat(1.5)))
	assert.Equal(t, "BOOL", TypeName(IRBool(false)))
	assert.Equal(t, "ARRAY", TypeName(IRArray{}))
	assert.Equal(t, "OBJECT", TypeName(IRObject{}))
}

func TestToNative(t *testing.T) {
	v := IRObject{
		"name":  IRString("A"),
		"id":    IRInt(1),
		"score": IRFloat(2.5),
		"tags":  IRArray{IRString("x"), IRBool(true)},
		"gone":  IRNull{},
	}

	native := ToNative(v)

	assert.Equal(t, map[string]any{
		"name":  "A",
		"id":    int64(1),
		"score": 2.5,
		"tags":  []any{"x", true},
		"gone":  nil,
	}, native)
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "hello", IRString("hello")},
		{"int", 42, IRInt(42)},
		{"uint8", uint8(7), IRInt(7)},
		{"integral float", 3.0, IRInt(3)},
		{"fractional float", 2.5, IRFloat(2.5)},
		{"json int", json.Number("12"), IRInt(12)},
		{"json float", json.Number("1.25"), IRFloat(1.25)},
		{"bool", true, IRBool(true)},
		{"slice", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}},
		{"typed slice", []string{"a", "b"}, IRArray{IRString("a"), IRString("b")}},
		{"typed map", map[string]int{"n": 1}, IRObject{"n": IRInt(1)}},
		{"already ir", IRString("x"), IRString("x")},
		{"server time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)), IRString("2024-01-02T02:04:05Z")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromNativeRejects(t *testing.T) {
	_, err := FromNative(math.NaN())
	assert.Error(t, err)

	_, err = FromNative(map[int]string{1: "x"})
	assert.Error(t, err)

	_, err = FromNative(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["ch"]`)
}

func TestEqual(t *testing.T) {
	a := IRObject{"x": IRArray{IRInt(1)}}
	b := IRObject{"x": IRArray{IRInt(1)}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(IRInt(1), IRFloat(1)))
}
