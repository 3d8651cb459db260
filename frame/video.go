package frame

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/native"
)

type Video struct {
	Commons
}

func (f *Video) Kind() Kind { return KindVideo }

func (f *Video) String() string { return f.describe(KindVideo) }

func (f *Video) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		VideoPool.Put(ctx, f)
	}
}

func (f *Video) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Video) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindVideo)
}

func (f *Video) Width(ctx context.Context) (int, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFrameWidth(h)
	})
}

func (f *Video) Height(ctx context.Context) (int, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFrameHeight(h)
	})
}

// Stride is the length of a row in bytes.
func (f *Video) Stride(ctx context.Context) (int, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFrameStrideInBytes(h)
	})
}

func (f *Video) BitsPerPixel(ctx context.Context) (int, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFrameBitsPerPixel(h)
	})
}

// CopyTo copies stride*height bytes of pixel data into dst.
func (f *Video) CopyTo(ctx context.Context, dst []byte) (int, error) {
	data, err := f.pixels(ctx)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(data) {
		return 0, fmt.Errorf("the destination buffer is too small: %d < %d", len(dst), len(data))
	}
	return copy(dst, data), nil
}

// CopyFrom overwrites the pixel data; used to fill frames allocated
// through a FrameSource.
func (f *Video) CopyFrom(ctx context.Context, src []byte) error {
	data, err := f.pixels(ctx)
	if err != nil {
		return err
	}
	if len(src) > len(data) {
		return fmt.Errorf("the source buffer is larger than the frame: %d > %d", len(src), len(data))
	}
	copy(data, src)
	return nil
}

func (f *Video) pixels(ctx context.Context) ([]byte, error) {
	data, err := f.Data(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the frame data: %w", err)
	}
	stride, err := f.Stride(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the stride: %w", err)
	}
	height, err := f.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the height: %w", err)
	}
	if size := stride * height; size < len(data) {
		data = data[:size]
	}
	return data, nil
}
