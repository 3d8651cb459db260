package frame

import (
	"context"

	"github.com/xaionaro-go/rsframe/native"
)

// Points is a point cloud produced by a PointCloud block.
type Points struct {
	Commons
}

func (f *Points) Kind() Kind { return KindPoints }

func (f *Points) String() string { return f.describe(KindPoints) }

func (f *Points) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		PointsPool.Put(ctx, f)
	}
}

func (f *Points) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Points) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindPoints)
}

func (f *Points) Count(ctx context.Context) (int, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (int, *native.Error) {
		return f.API.GetFramePointsCount(h)
	})
}

func (f *Points) Vertices(ctx context.Context) ([]native.Vertex, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) ([]native.Vertex, *native.Error) {
		return f.API.GetFrameVertices(h)
	})
}

func (f *Points) TextureCoordinates(ctx context.Context) ([]native.TextureCoordinate, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) ([]native.TextureCoordinate, *native.Error) {
		return f.API.GetFrameTextureCoordinates(h)
	})
}
