// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package structured decodes property lists and XML documents found in
// device extractions.
//
// Property lists decode into Value, a tagged union that always states what it
// holds. XML documents decode into a tree of Node elements.
package structured

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"howett.net/plist"
)

// Kind is the type held by a Value.
type Kind int

// Value kinds.
const (
	Invalid Kind = iota
	Dict
	List
	String
	Number
	Bool
	Bytes
	Date
	UID
)

var kindNames = [...]string{"invalid", "dict", "list", "string", "number", "bool", "bytes", "date", "uid"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a decoded property list value. The zero Value is Invalid and is
// returned for missing keys and out of range indices.
type Value struct {
	kind  Kind
	dict  map[string]Value
	list  []Value
	str   string
	i     int64
	u     uint64
	f     float64
	num   numKind
	b     bool
	bytes []byte
	t     time.Time
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

// NewDict creates a Dict value.
func NewDict(m map[string]Value) Value { return Value{kind: Dict, dict: m} }

// NewList creates a List value.
func NewList(l []Value) Value { return Value{kind: List, list: l} }

// NewString creates a String value.
func NewString(s string) Value { return Value{kind: String, str: s} }

// NewInt creates a signed Number value.
func NewInt(i int64) Value { return Value{kind: Number, i: i, num: numInt} }

// NewUint creates an unsigned Number value for integers above math.MaxInt64.
func NewUint(u uint64) Value { return Value{kind: Number, u: u, num: numUint} }

// NewFloat creates a floating point Number value.
func NewFloat(f float64) Value { return Value{kind: Number, f: f, num: numFloat} }

// NewBool creates a Bool value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewBytes creates a Bytes value.
func NewBytes(b []byte) Value { return Value{kind: Bytes, bytes: b} }

// NewDate creates a Date value.
func NewDate(t time.Time) Value { return Value{kind: Date, t: t} }

// NewUID creates a UID value as used by keyed archives.
func NewUID(u uint64) Value { return Value{kind: UID, u: u} }

// FromInterface converts decoded Go values into a Value.
func FromInterface(v interface{}) (Value, error) {
	switch v := v.(type) {
	case map[string]interface{}:
		m := make(map[string]Value, len(v))
		for k, item := range v {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, errors.Wrap(err, k)
			}
			m[k] = val
		}
		return NewDict(m), nil
	case []interface{}:
		l := make([]Value, 0, len(v))
		for i, item := range v {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, errors.Wrap(err, fmt.Sprint(i))
			}
			l = append(l, val)
		}
		return NewList(l), nil
	case string:
		return NewString(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case uint64:
		if v <= math.MaxInt64 {
			return NewInt(int64(v)), nil
		}
		return NewUint(v), nil
	case float32:
		return NewFloat(float64(v)), nil
	case float64:
		return NewFloat(v), nil
	case bool:
		return NewBool(v), nil
	case []byte:
		return NewBytes(v), nil
	case time.Time:
		return NewDate(v), nil
	case plist.UID:
		return NewUID(uint64(v)), nil
	case Value:
		return v, nil
	default:
		return Value{}, errors.Errorf("unsupported type %T", v)
	}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != Invalid }

// Get returns the dict member key.
func (v Value) Get(key string) (Value, bool) {
	item, ok := v.dict[key]
	return item, ok
}

// Index returns the list element i.
func (v Value) Index(i int) Value {
	if i < 0 || i >= len(v.list) {
		return Value{}
	}
	return v.list[i]
}

// Keys returns the sorted dict keys.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.dict))
	for k := range v.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of dict members, list elements, bytes or string
// bytes.
func (v Value) Len() int {
	switch v.kind {
	case Dict:
		return len(v.dict)
	case List:
		return len(v.list)
	case String:
		return len(v.str)
	case Bytes:
		return len(v.bytes)
	}
	return 0
}

// Map returns the members of a dict.
func (v Value) Map() map[string]Value { return v.dict }

// List returns the elements of a list.
func (v Value) List() []Value { return v.list }

// Str returns the string of a String value.
func (v Value) Str() (string, bool) { return v.str, v.kind == String }

// Int returns integer numbers and UIDs.
func (v Value) Int() (int64, bool) {
	switch {
	case v.kind == Number && v.num == numInt:
		return v.i, true
	case v.kind == Number && v.num == numFloat && v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63:
		return int64(v.f), true
	case v.kind == UID && v.u <= math.MaxInt64:
		return int64(v.u), true
	}
	return 0, false
}

// Uint returns non negative integer numbers and UIDs.
func (v Value) Uint() (uint64, bool) {
	switch {
	case v.kind == UID, v.kind == Number && v.num == numUint:
		return v.u, true
	case v.kind == Number && v.num == numInt && v.i >= 0:
		return uint64(v.i), true
	}
	return 0, false
}

// Float returns any number as float64.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	switch v.num {
	case numInt:
		return float64(v.i), true
	case numUint:
		return float64(v.u), true
	default:
		return v.f, true
	}
}

// Bool returns the boolean of a Bool value.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Bytes returns the data of a Bytes value.
func (v Value) Bytes() ([]byte, bool) { return v.bytes, v.kind == Bytes }

// Time returns the time of a Date value.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == Date }

// UID returns the object reference of a UID value.
func (v Value) UID() (uint64, bool) { return v.u, v.kind == UID }

// String renders v. For String values this is the string itself.
func (v Value) String() string {
	switch v.kind {
	case Invalid:
		return "<invalid>"
	case String:
		return v.str
	case Date:
		return v.t.UTC().Format(time.RFC3339Nano)
	case Bytes:
		return base64.StdEncoding.EncodeToString(v.bytes)
	case UID:
		return fmt.Sprintf("UID(%d)", v.u)
	}
	return fmt.Sprint(v.Interface())
}

// Interface converts v into plain Go values: map[string]interface{},
// []interface{}, string, int64, uint64, float64, bool, []byte and time.Time.
// UIDs become uint64.
func (v Value) Interface() interface{} {
	switch v.kind {
	case Dict:
		m := make(map[string]interface{}, len(v.dict))
		for k, item := range v.dict {
			m[k] = item.Interface()
		}
		return m
	case List:
		l := make([]interface{}, 0, len(v.list))
		for _, item := range v.list {
			l = append(l, item.Interface())
		}
		return l
	case String:
		return v.str
	case Number:
		switch v.num {
		case numInt:
			return v.i
		case numUint:
			return v.u
		default:
			return v.f
		}
	case Bool:
		return v.b
	case Bytes:
		return v.bytes
	case Date:
		return v.t
	case UID:
		return v.u
	}
	return nil
}

// MarshalJSON encodes v with bytes as base64 and dates as RFC 3339.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Lookup evaluates a gjson path, e.g. "Accounts.0.Name", against the JSON
// rendering of v.
func (v Value) Lookup(path string) gjson.Result {
	b, err := v.MarshalJSON()
	if err != nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(b, path)
}

// Decode stores v into out, which is usually a pointer to a struct. Struct
// fields are matched by their plist tag.
func (v Value) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "plist",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(v.Interface())
}
