package vmconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is one node of a configuration document. Object keys keep the
// order in which they were set so encoded documents are stable.
type Value struct {
	kind   Kind
	b      bool
	num    string
	str    string
	items  []Value
	keys   []string
	fields map[string]Value
}

// documentAPI keeps numbers as literals so 64-bit sizes survive parsing.
var documentAPI = jsoniter.Config{
	EscapeHTML:    false,
	UseNumber:     true,
	IndentionStep: 4,
}.Froze()

// ParseError reports a document that is not structured text at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse configuration document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Uint returns a number value holding u.
func Uint(u uint64) Value { return Value{kind: KindNumber, num: strconv.FormatUint(u, 10)} }

// Int returns a number value holding i.
func Int(i int64) Value { return Value{kind: KindNumber, num: strconv.FormatInt(i, 10)} }

// Array returns an array of items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// Object returns an empty object.
func Object() Value {
	return Value{kind: KindObject, fields: map[string]Value{}}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Set stores val under key, keeping the first insertion position of key.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindObject {
		*v = Object()
	}
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

// Get returns the member named key. It reports false for non-objects.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.fields[key]
	return val, ok
}

// Keys returns object keys in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Len is the number of members of an object or items of an array.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.keys)
	case KindArray:
		return len(v.items)
	default:
		return 0
	}
}

// Items returns array elements, or nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Append adds an element to an array value.
func (v *Value) Append(item Value) {
	if v.kind != KindArray {
		*v = Array()
	}
	v.items = append(v.items, item)
}

// AsString returns the string held by v. It reports false for other kinds.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBool returns the boolean held by v. It reports false for other kinds.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// NumberLiteral returns a number exactly as it appeared in the document.
func (v Value) NumberLiteral() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.num, true
}

// Uint64 converts a number, truncating any fractional part. Negative or
// out-of-range numbers report false.
func (v Value) Uint64() (uint64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if u, err := strconv.ParseUint(v.num, 10, 64); err == nil {
		return u, true
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil || math.IsNaN(f) || f <= -1 || f >= math.MaxUint64 {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	return uint64(f), true
}

// Int64 converts a number, truncating any fractional part.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.num, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Equal reports structural equality. Object key order is ignored.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.str == other.str
	case KindNumber:
		if v.num == other.num {
			return true
		}
		a, errA := strconv.ParseFloat(v.num, 64)
		b, errB := strconv.ParseFloat(other.num, 64)
		return errA == nil && errB == nil && a == b
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for key, val := range v.fields {
			o, ok := other.fields[key]
			if !ok || !val.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// Parse reads a document. It fails only when data is not JSON.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, &ParseError{Err: fmt.Errorf("empty document")}
	}

	var raw interface{}
	if err := documentAPI.Unmarshal(data, &raw); err != nil {
		return Value{}, &ParseError{Err: err}
	}

	return fromInterface(raw), nil
}

func fromInterface(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		return Value{kind: KindNumber, num: x.String()}
	case float64:
		return Value{kind: KindNumber, num: strconv.FormatFloat(x, 'g', -1, 64)}
	case string:
		return String(x)
	case []interface{}:
		out := Value{kind: KindArray, items: make([]Value, 0, len(x))}
		for _, item := range x {
			out.items = append(out.items, fromInterface(item))
		}
		return out
	case map[string]interface{}:
		// Source key order is not recoverable from a map.
		keys := make([]string, 0, len(x))
		for key := range x {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		out := Object()
		for _, key := range keys {
			out.Set(key, fromInterface(x[key]))
		}
		return out
	default:
		return Null()
	}
}

// Serialize writes v as indented JSON followed by a newline.
func Serialize(v Value) ([]byte, error) {
	stream := documentAPI.BorrowStream(nil)
	defer documentAPI.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, fmt.Errorf("failed to serialize configuration document: %w", stream.Error)
	}

	out := make([]byte, 0, len(stream.Buffer())+1)
	out = append(out, stream.Buffer()...)
	return append(out, '\n'), nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.kind {
	case KindBool:
		stream.WriteBool(v.b)
	case KindNumber:
		stream.WriteRaw(v.num)
	case KindString:
		stream.WriteString(v.str)
	case KindArray:
		if len(v.items) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case KindObject:
		if len(v.keys) == 0 {
			stream.WriteEmptyObject()
			return
		}
		stream.WriteObjectStart()
		for i, key := range v.keys {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(key)
			writeValue(stream, v.fields[key])
		}
		stream.WriteObjectEnd()
	default:
		stream.WriteNil()
	}
}
