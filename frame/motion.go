package frame

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/rsframe/native"
)

type Motion struct {
	Commons
}

func (f *Motion) Kind() Kind { return KindMotion }

func (f *Motion) String() string { return f.describe(KindMotion) }

func (f *Motion) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		MotionPool.Put(ctx, f)
	}
}

func (f *Motion) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Motion) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindMotion)
}

// MotionData decodes the three little-endian float32 axes of the sample.
func (f *Motion) MotionData(ctx context.Context) (native.Vector, error) {
	data, err := f.Data(ctx)
	if err != nil {
		return native.Vector{}, err
	}
	if len(data) < 12 {
		return native.Vector{}, fmt.Errorf("a motion sample is 12 bytes, but the frame has %d", len(data))
	}
	axis := func(idx int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[idx*4:]))
	}
	return native.Vector{X: axis(0), Y: axis(1), Z: axis(2)}, nil
}

type Pose struct {
	Commons
}

func (f *Pose) Kind() Kind { return KindPose }

func (f *Pose) String() string { return f.describe(KindPose) }

func (f *Pose) Release(ctx context.Context) {
	if f.releaseHandle(ctx) {
		PosePool.Put(ctx, f)
	}
}

func (f *Pose) Close(ctx context.Context) error {
	f.Release(ctx)
	return nil
}

func (f *Pose) Clone(ctx context.Context) (Abstract, error) {
	return f.clone(ctx, KindPose)
}

func (f *Pose) PoseData(ctx context.Context) (native.Pose, error) {
	return callR1(&f.Commons, func(h native.FrameHandle) (native.Pose, *native.Error) {
		return f.API.PoseFrameGetPoseData(h)
	})
}
