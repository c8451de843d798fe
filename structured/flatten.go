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

package structured

import (
	"strconv"
	"strings"

	"github.com/imdario/mergo"
)

// Flatten returns the leaves of v in a map one level deep. Keys are the
// dot joined dict keys and list indices leading to the leaf, e.g.
// "Accounts.0.Name". Empty dicts and lists are dropped.
func Flatten(v Value) map[string]interface{} {
	flat := map[string]interface{}{}
	flatten(flat, "", v)
	return flat
}

func flatten(flat map[string]interface{}, prefix string, v Value) {
	switch v.kind {
	case Dict:
		for k, item := range v.dict {
			flatten(flat, join(prefix, k), item)
		}
	case List:
		for i, item := range v.list {
			flatten(flat, join(prefix, strconv.Itoa(i)), item)
		}
	case Invalid:
	default:
		flat[prefix] = v.Interface()
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Unflatten reverses Flatten. Dicts whose keys are exactly 0..n-1 become
// lists.
func Unflatten(flat map[string]interface{}) (Value, error) {
	nested := map[string]interface{}{}
	for k, leaf := range flat {
		keys := strings.Split(k, ".")
		var n interface{} = leaf
		for i := len(keys) - 1; i >= 0; i-- {
			n = map[string]interface{}{keys[i]: n}
		}
		if err := mergo.Merge(&nested, n.(map[string]interface{})); err != nil {
			return Value{}, err
		}
	}
	return FromInterface(lists(nested))
}

func lists(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	for k, item := range m {
		m[k] = lists(item)
	}

	list := make([]interface{}, len(m))
	for k, item := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || list[i] != nil {
			return m
		}
		list[i] = item
	}
	if len(list) == 0 {
		return m
	}
	return list
}
