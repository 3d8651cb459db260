package internal

import (
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
)

// ErrorFrom converts a native error into types.ErrNativeCall and frees it.
// Returns nil if nativeErr is nil.
func ErrorFrom(api native.API, nativeErr *native.Error) error {
	if nativeErr == nil {
		return nil
	}
	err := types.ErrNativeCall{
		Function: nativeErr.Function,
		Args:     nativeErr.Args,
		Message:  nativeErr.Message,
		Type:     nativeErr.Type.String(),
	}
	api.FreeError(nativeErr)
	return err
}
