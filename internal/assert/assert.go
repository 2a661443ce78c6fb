package assert

import (
	"fmt"
	"reflect"
	"time"
)

// NotNil panics if value is nil, including typed nil pointers, maps, slices and funcs
// stored in an interface.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		if v.IsNil() {
			panic(fmt.Sprintf("expected value of type %T to be not nil", value))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

func Positive[T int | int64 | time.Duration](n T) {
	if n <= 0 {
		panic(fmt.Sprintf("expected positive value, got %v", n))
	}
}
