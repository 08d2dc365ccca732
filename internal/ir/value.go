package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"
	"unicode/utf16"
)

// IRValue is a sealed interface representing a literal in a query descriptor.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray and IRObject implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents null / None.
// Using an explicit type keeps nil out of IRValue trees.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string literal.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer literal.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating point literal.
// NaN and infinities never appear: the parser cannot produce them and
// FromNative rejects them.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for astral runes.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// TypeName returns the REQL-facing name of a value's type, used in
// argument error messages ("expected string, got OBJECT").
func TypeName(v IRValue) string {
	switch v.(type) {
	case IRNull:
		return "NULL"
	case IRString:
		return "STRING"
	case IRInt, IRFloat:
		return "NUMBER"
	case IRBool:
		return "BOOL"
	case IRArray:
		return "ARRAY"
	case IRObject:
		return "OBJECT"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ToNative converts an IRValue tree to plain Go values suitable for the
// database driver: map[string]any, []any, string, int64, float64, bool, nil.
func ToNative(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRBool:
		return bool(val)
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToNative(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToNative(elem)
		}
		return out
	default:
		return nil
	}
}

// FromNative converts a decoded Go value (as produced by encoding/json or the
// database driver) into an IRValue tree.
//
// Integral numbers become IRInt; other numbers become IRFloat. Maps must have
// string keys. Unsupported types return an error naming the offending path.
func FromNative(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int8:
		return IRInt(val), nil
	case int16:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint8:
		return IRInt(val), nil
	case uint16:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return IRFloat(float64(val)), nil
		}
		return IRInt(val), nil
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case time.Time:
		return IRString(val.UTC().Format(time.RFC3339Nano)), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return IRInt(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return fromFloat(f)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return fromReflect(reflect.ValueOf(v))
	}
}

// fromReflect handles typed maps and slices (map[string]string, []string,
// named document types) that the type switch above cannot name.
func fromReflect(rv reflect.Value) (IRValue, error) {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type: %s", rv.Type().Key())
		}
		obj := make(IRObject, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			irElem, err := FromNative(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			obj[iter.Key().String()] = irElem
		}
		return obj, nil
	case reflect.Slice, reflect.Array:
		arr := make(IRArray, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			irElem, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case reflect.Invalid:
		return IRNull{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", rv.Type())
	}
}

func fromFloat(f float64) (IRValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IRInt(int64(f)), nil
	}
	return IRFloat(f), nil
}

// Equal reports whether two IRValue trees are structurally equal.
// IRInt(1) and IRFloat(1) are different values.
func Equal(a, b IRValue) bool {
	return reflect.DeepEqual(a, b)
}
