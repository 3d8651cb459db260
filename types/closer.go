package types

import (
	"context"
)

// Closer is anything that owns native resources and gives them back on Close.
type Closer interface {
	Close(context.Context) error
}

// CloserFunc adapts a function to Closer.
type CloserFunc func(context.Context) error

func (fn CloserFunc) Close(ctx context.Context) error {
	return fn(ctx)
}
