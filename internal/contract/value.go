package contract

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the constrained payload value types.
// Only String, Int, Bool, Array, and Object implement it. There is no float
// variant: floats break deterministic hashing and are forbidden on the
// contract surface.
type Value interface {
	contractValue() // sealed
}

// String is a string payload value.
type String string

func (String) contractValue() {}

// Int is an integer payload value. Always int64, never float64.
type Int int64

func (Int) contractValue() {}

// Bool is a boolean payload value.
type Bool bool

func (Bool) contractValue() {}

// Array is an ordered list of payload values.
type Array []Value

func (Array) contractValue() {}

// Object maps string keys to payload values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) contractValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's native string ordering compares UTF-8 bytes, which differs for
// characters outside the BMP, so the comparator encodes to UTF-16 first.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

func compareKeysUTF16(a, b string) int {
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
	}
	return 0
}

// ValueFromAny converts decoded JSON/YAML data into a Value.
// Floats and nulls are rejected.
func ValueFromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case nil:
		return nil, fmt.Errorf("null is forbidden in payload values")
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in payload values: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			cv, err := ValueFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			cv, err := ValueFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		(*o)[k] = val
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Object. This is the plain
// (non-canonical) encoding; hashing must go through MarshalCanonical.
func (o Object) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o))
	for k, v := range o {
		m[k] = v
	}
	return json.Marshal(m)
}

func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is forbidden in payload values")
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		arr := make(Array, len(raw))
		for i, v := range raw {
			val, err := unmarshalValue(v)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = val
		}
		return arr, nil
	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		// Numeric literal. Decode via json.Number so a fractional or
		// exponent form is rejected instead of silently truncated.
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return nil, err
		}
		n, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q is forbidden", num)
		}
		return Int(n), nil
	}
}
