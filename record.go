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

package mobileforensics

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/stoewer/go-strcase"
)

// Record converts results into plain maps and lists with snake_case keys,
// e.g. for JSON output. Struct fields use their json tag name if present.
// Empty strings, lists, maps and nil pointers are dropped. Map keys are data
// and are kept as they are.
func Record(v interface{}) interface{} {
	switch v := v.(type) {
	case nil:
		return nil
	case time.Time, json.Marshaler, encoding.TextMarshaler:
		return v
	case []byte:
		return v
	}

	if structs.IsStruct(v) {
		return record(structs.New(v))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Record(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		l := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			l = append(l, Record(rv.Index(i).Interface()))
		}
		return l
	case reflect.Map:
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if isEmptyValue(iter.Value()) {
				continue
			}
			m[mapKey(iter.Key())] = Record(iter.Value().Interface())
		}
		return m
	default:
		return v
	}
}

func record(s *structs.Struct) map[string]interface{} {
	m := map[string]interface{}{}
	for _, field := range s.Fields() {
		if !field.IsExported() {
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}
		value := field.Value()
		if isEmptyValue(reflect.ValueOf(value)) {
			continue
		}
		if field.IsEmbedded() && field.Tag("json") == "" && structs.IsStruct(value) {
			for k, v := range record(structs.New(value)) {
				m[k] = v
			}
			continue
		}
		m[name] = Record(value)
	}
	return m
}

func fieldName(field *structs.Field) string {
	tag := field.Tag("json")
	if name := strings.Split(tag, ",")[0]; name != "" {
		return name
	}
	return strcase.SnakeCase(field.Name())
}

func mapKey(k reflect.Value) string {
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if b, err := tm.MarshalText(); err == nil {
			return string(b)
		}
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	b, _ := json.Marshal(k.Interface())
	return strings.Trim(string(b), `"`)
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
