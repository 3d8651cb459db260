package frame

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
	"go.uber.org/atomic"
)

// Commons is the part shared by all the variants: the API the handle
// came from and the handle itself.
type Commons struct {
	API    native.API
	handle atomic.Uintptr
}

func (f *Commons) bind(api native.API, h native.FrameHandle) {
	f.API = api
	f.handle.Store(uintptr(h))
}

func (f *Commons) reset() {
	f.API = nil
}

func (f *Commons) GetAPI() native.API {
	return f.API
}

func (f *Commons) GetHandle() native.FrameHandle {
	return native.FrameHandle(f.handle.Load())
}

func (f *Commons) IsReleased() bool {
	return f.GetHandle() == 0
}

// releaseHandle nulls the handle and releases the reference it held.
// Only the call that actually nulled the handle returns true, so
// concurrent or repeated releases issue a single native release.
func (f *Commons) releaseHandle(ctx context.Context) bool {
	h := native.FrameHandle(f.handle.Swap(0))
	if h == 0 {
		return false
	}
	logger.Tracef(ctx, "releasing frame %#x", h)
	f.API.ReleaseFrame(h)
	return true
}

// ReleaseLeaked is called by the finalizer; it does not recycle the wrapper.
func (f *Commons) ReleaseLeaked(ctx context.Context) bool {
	return f.releaseHandle(ctx)
}

// addRef takes one more native reference to the current handle.
func (f *Commons) addRef(ctx context.Context) (native.FrameHandle, error) {
	h := f.GetHandle()
	if h == 0 {
		return 0, types.ErrReleased{}
	}
	if nerr := f.API.FrameAddRef(h); nerr != nil {
		return 0, internal.ErrorFrom(f.API, nerr)
	}
	logger.Tracef(ctx, "added a reference to frame %#x", h)
	return h, nil
}

func (f *Commons) clone(ctx context.Context, kind Kind) (Abstract, error) {
	h, err := f.addRef(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(ctx, f.API, h, kind)
}

func (f *Commons) describe(kind Kind) string {
	h := f.GetHandle()
	if h == 0 {
		return fmt.Sprintf("%s(released)", kind)
	}
	return fmt.Sprintf("%s(%#x)", kind, h)
}

func callR1[T any](
	f *Commons,
	fn func(native.FrameHandle) (T, *native.Error),
) (T, error) {
	h := f.GetHandle()
	if h == 0 {
		var zero T
		return zero, types.ErrReleased{}
	}
	v, nerr := fn(h)
	if nerr != nil {
		return v, internal.ErrorFrom(f.API, nerr)
	}
	return v, nil
}

func (f *Commons) IsExtendableTo(ctx context.Context, ext native.Extension) (bool, error) {
	return callR1(f, func(h native.FrameHandle) (bool, *native.Error) {
		return f.API.IsFrameExtendableTo(h, ext)
	})
}

func (f *Commons) IsComposite(ctx context.Context) (bool, error) {
	return f.IsExtendableTo(ctx, native.ExtensionCompositeFrame)
}

// Data returns the frame's memory; it is valid until the frame is released.
func (f *Commons) Data(ctx context.Context) ([]byte, error) {
	return callR1(f, func(h native.FrameHandle) ([]byte, *native.Error) {
		return f.API.GetFrameData(h)
	})
}

func (f *Commons) DataSize(ctx context.Context) (int, error) {
	return callR1(f, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFrameDataSize(h)
	})
}

func (f *Commons) Number(ctx context.Context) (uint64, error) {
	return callR1(f, func(h native.FrameHandle) (uint64, *native.Error) {
		return f.API.GetFrameNumber(h)
	})
}

// Timestamp is in milliseconds, in the domain returned by TimestampDomain.
func (f *Commons) Timestamp(ctx context.Context) (float64, error) {
	return callR1(f, func(h native.FrameHandle) (float64, *native.Error) {
		return f.API.GetFrameTimestamp(h)
	})
}

func (f *Commons) TimestampDomain(ctx context.Context) (native.TimestampDomain, error) {
	return callR1(f, func(h native.FrameHandle) (native.TimestampDomain, *native.Error) {
		return f.API.GetFrameTimestampDomain(h)
	})
}

func (f *Commons) Metadata(ctx context.Context, md native.FrameMetadata) (int64, error) {
	return callR1(f, func(h native.FrameHandle) (int64, *native.Error) {
		return f.API.GetFrameMetadata(h, md)
	})
}

func (f *Commons) SupportsMetadata(ctx context.Context, md native.FrameMetadata) (bool, error) {
	return callR1(f, func(h native.FrameHandle) (bool, *native.Error) {
		return f.API.SupportsFrameMetadata(h, md)
	})
}

func (f *Commons) Profile(ctx context.Context) (native.StreamProfile, error) {
	return callR1(f, func(h native.FrameHandle) (native.StreamProfile, *native.Error) {
		return f.API.GetFrameStreamProfile(h)
	})
}
