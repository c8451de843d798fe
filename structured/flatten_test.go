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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	v := NewDict(map[string]Value{
		"a": NewDict(map[string]Value{"b": NewString("c")}),
		"l": NewList([]Value{NewInt(1), NewDict(map[string]Value{"x": NewBool(true)})}),
		"e": NewList(nil),
	})
	want := map[string]interface{}{
		"a.b":   "c",
		"l.0":   int64(1),
		"l.1.x": true,
	}
	assert.Equal(t, want, Flatten(v))
}

func TestUnflatten(t *testing.T) {
	flat := map[string]interface{}{
		"a.b":   "c",
		"l.0":   int64(1),
		"l.1.x": true,
	}
	v, err := Unflatten(flat)
	require.NoError(t, err)
	assert.Equal(t, flat, Flatten(v))

	l, _ := v.Get("l")
	assert.Equal(t, List, l.Kind())
}
