package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type valueTag uint8

const (
	tagInvalid valueTag = iota
	tagNull
	tagBool
	tagInt
	tagNumber
	tagString
	tagList
)

// Value is one leaf value. It is a tagged variant: a Value is either an
// explicit null or exactly one concrete payload. "Not set at this layer" is
// not a Value at all; layers express it by omitting the path.
//
// The zero Value is invalid and is rejected by Schema.Validate.
type Value struct {
	tag  valueTag
	b    bool
	i    int
	f    float64
	s    string
	list []string
}

// Null returns the explicit null value.
func Null() Value { return Value{tag: tagNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{tag: tagBool, b: b} }

// Int returns an integer value.
func Int(i int) Value { return Value{tag: tagInt, i: i} }

// Number returns a floating point value.
func Number(f float64) Value { return Value{tag: tagNumber, f: f} }

// String returns a string value, used by enum leaves.
func String(s string) Value { return Value{tag: tagString, s: s} }

// List returns a string list value. The slice is copied.
func List(items ...string) Value {
	return Value{tag: tagList, list: append([]string{}, items...)}
}

func (v Value) IsValid() bool { return v.tag != tagInvalid }
func (v Value) IsNull() bool  { return v.tag == tagNull }

// AsBool returns the boolean payload and whether the value holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.tag == tagBool }

// AsInt returns the integer payload and whether the value holds one.
func (v Value) AsInt() (int, bool) { return v.i, v.tag == tagInt }

// AsNumber returns the numeric payload. Integers are widened.
func (v Value) AsNumber() (float64, bool) {
	switch v.tag {
	case tagNumber:
		return v.f, true
	case tagInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string payload and whether the value holds one.
func (v Value) AsString() (string, bool) { return v.s, v.tag == tagString }

// AsList returns a copy of the list payload and whether the value holds one.
func (v Value) AsList() ([]string, bool) {
	if v.tag != tagList {
		return nil, false
	}
	return append([]string{}, v.list...), true
}

// Clone returns a value that shares no memory with v.
func (v Value) Clone() Value {
	if v.tag == tagList {
		v.list = append([]string{}, v.list...)
	}
	return v
}

// Equal reports whether both values carry the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case tagBool:
		return v.b == o.b
	case tagInt:
		return v.i == o.i
	case tagNumber:
		return v.f == o.f
	case tagString:
		return v.s == o.s
	case tagList:
		return slices.Equal(v.list, o.list)
	}
	return true
}

// Any returns the natural Go representation: nil, bool, int, float64,
// string or []string.
func (v Value) Any() any {
	switch v.tag {
	case tagBool:
		return v.b
	case tagInt:
		return v.i
	case tagNumber:
		return v.f
	case tagString:
		return v.s
	case tagList:
		return append([]string{}, v.list...)
	}
	return nil
}

func (v Value) String() string {
	switch v.tag {
	case tagInvalid:
		return "<invalid>"
	case tagNull:
		return "null"
	case tagBool:
		return strconv.FormatBool(v.b)
	case tagInt:
		return strconv.Itoa(v.i)
	case tagNumber:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case tagString:
		return v.s
	case tagList:
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return fmt.Sprintf("<tag %d>", v.tag)
}

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.tag == tagInvalid {
		return nil, fmt.Errorf("marshal invalid value")
	}
	if v.tag == tagList && v.list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a natural JSON value. Numbers without a fractional
// part decode as integers; Schema.Coerce settles the final kind per leaf.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts decoded JSON, YAML or TOML data into a Value without
// consulting a schema.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x.Clone(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int64:
		return Int(int(x)), nil
	case int32:
		return Int(int(x)), nil
	case uint64:
		return Int(int(x)), nil
	case float32:
		return numberOrInt(float64(x)), nil
	case float64:
		return numberOrInt(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(int(i)), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(f), nil
	case string:
		return String(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("list item %v is %T, want string", item, item)
			}
			items = append(items, s)
		}
		return List(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

func numberOrInt(f float64) Value {
	if f == float64(int(f)) {
		return Int(int(f))
	}
	return Number(f)
}
