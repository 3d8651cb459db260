package frame

import (
	"context"
)

// Plain is a frame with no capability beyond the common accessors.
type Plain struct {
	Commons
}

func (f *Plain) Kind() Kind { return KindPlain }

func (f *Plain) String() string { return f.describe(KindPlain) }

func (f *Plain) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		PlainPool.Put(ctx, f)
	}
}

func (f *Plain) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Plain) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindPlain)
}
