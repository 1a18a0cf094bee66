package utils

import (
	"reflect"

	"github.com/pkg/errors"
)

// Assert panics with the formatted message when c is false. It guards
// generator invariants, never user input.
func Assert(c bool, format string, args ...interface{}) {
	if !c {
		panic(errors.Errorf("assert: "+format, args...))
	}
}

// NotNil panics when v is nil, including typed nil pointers, maps and funcs.
func NotNil(v interface{}, what string) {
	if v == nil {
		panic(errors.Errorf("assert: nil %s", what))
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Slice, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			panic(errors.Errorf("assert: nil %s", what))
		}
	}
}
