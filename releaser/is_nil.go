package releaser

import (
	"reflect"

	"github.com/xaionaro-go/rsframe/types"
)

// isNil also catches typed nil pointers stored in the interface.
func isNil(c types.Closer) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
