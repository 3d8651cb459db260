package frame

import (
	"context"
	"fmt"
	"reflect"

	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
)

// New takes ownership of one reference to h and wraps it into the most
// specific variant the handle can be extended to. On failure the
// reference is released.
func New(
	ctx context.Context,
	api native.API,
	h native.FrameHandle,
) (_ret Abstract, _err error) {
	logger.Tracef(ctx, "New(%#x)", h)
	defer func() { logger.Tracef(ctx, "/New(%#x): %v %v", h, _ret, _err) }()
	if h == 0 {
		return nil, types.ErrNullHandle{}
	}

	kind, err := probeKind(api, h)
	if err != nil {
		api.ReleaseFrame(h)
		return nil, fmt.Errorf("unable to detect the type of frame %#x: %w", h, err)
	}
	return wrap(ctx, api, h, kind)
}

func probeKind(api native.API, h native.FrameHandle) (Kind, error) {
	for _, kind := range dispatchOrder {
		ok, nerr := api.IsFrameExtendableTo(h, kind.Extension())
		if nerr != nil {
			return KindPlain, internal.ErrorFrom(api, nerr)
		}
		if ok {
			return kind, nil
		}
	}
	return KindPlain, nil
}

// wrap takes ownership of one reference to h.
func wrap(
	ctx context.Context,
	api native.API,
	h native.FrameHandle,
	kind Kind,
) (Abstract, error) {
	switch kind {
	case KindPlain:
		f := PlainPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindVideo:
		f := VideoPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindDepth:
		f := DepthPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindDisparity:
		f := DisparityPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindMotion:
		f := MotionPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindPose:
		f := PosePool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindPoints:
		f := PointsPool.Get(ctx)
		f.bind(api, h)
		return f, nil
	case KindSet:
		return newSet(ctx, api, h)
	default:
		api.ReleaseFrame(h)
		return nil, fmt.Errorf("unexpected frame kind %s", kind)
	}
}

// As converts f to the requested variant (or variant interface). On a
// mismatch f is released, so the caller never has to clean up after a
// failed conversion.
func As[T Abstract](ctx context.Context, f Abstract) (T, error) {
	var zero T
	if f == nil {
		return zero, types.ErrNullHandle{}
	}
	if v, ok := f.(T); ok {
		return v, nil
	}
	f.Release(ctx)
	return zero, types.ErrUnexpectedFrameType{
		Expected: reflect.TypeFor[T]().String(),
		Actual:   f.Kind().String(),
	}
}

// NewAs is New followed by As.
func NewAs[T Abstract](
	ctx context.Context,
	api native.API,
	h native.FrameHandle,
) (T, error) {
	f, err := New(ctx, api, h)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](ctx, f)
}
