package types

import (
	"reflect"
)

// ObjectID identifies a live Go object; used to tag log entries of
// wrappers that get recycled through pools.
type ObjectID uint64

type Pointer[T any] interface {
	*T
}

func GetObjectID[P Pointer[T], T any](obj P) ObjectID {
	if obj == nil {
		return 0
	}
	return ObjectID(uint64(reflect.ValueOf(obj).Pointer()))
}
