package frame

import (
	"context"

	"github.com/xaionaro-go/rsframe/native"
)

type Depth struct {
	Video
}

func (f *Depth) Kind() Kind { return KindDepth }

func (f *Depth) String() string { return f.describe(KindDepth) }

func (f *Depth) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		DepthPool.Put(ctx, f)
	}
}

func (f *Depth) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Depth) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindDepth)
}

// Distance returns the depth at the pixel in meters.
func (f *Depth) Distance(ctx context.Context, x, y int) (float32, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (float32, *native.Error) {
		return f.API.DepthFrameGetDistance(h, x, y)
	})
}

// Units is the amount of meters in one depth unit.
func (f *Depth) Units(ctx context.Context) (float32, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (float32, *native.Error) {
		return f.API.DepthFrameGetUnits(h)
	})
}

type Disparity struct {
	Depth
}

func (f *Disparity) Kind() Kind { return KindDisparity }

func (f *Disparity) String() string { return f.describe(KindDisparity) }

func (f *Disparity) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		DisparityPool.Put(ctx, f)
	}
}

func (f *Disparity) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Disparity) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindDisparity)
}

// Baseline is the stereo baseline in millimeters.
func (f *Disparity) Baseline(ctx context.Context) (float32, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (float32, *native.Error) {
		return f.API.DepthStereoFrameGetBaseline(h)
	})
}
