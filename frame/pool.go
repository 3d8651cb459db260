// pool.go keeps one free-list of wrappers per variant.

package frame

import (
	"context"

	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/pool"
)

type pooledFrame interface {
	ReleaseLeaked(ctx context.Context) bool
	reset()
}

func newFramePool[T any, P interface {
	*T
	pooledFrame
}]() *pool.Pool[T] {
	return pool.NewPool(
		func(ctx context.Context) *T {
			f := P(new(T))
			internal.SetFinalizerRelease(ctx, f)
			return (*T)(f)
		},
		func(f *T) {
			P(f).reset()
		},
	)
}

var (
	PlainPool     = newFramePool[Plain]()
	VideoPool     = newFramePool[Video]()
	DepthPool     = newFramePool[Depth]()
	DisparityPool = newFramePool[Disparity]()
	MotionPool    = newFramePool[Motion]()
	PosePool      = newFramePool[Pose]()
	PointsPool    = newFramePool[Points]()
	SetPool       = newFramePool[Set]()
)
