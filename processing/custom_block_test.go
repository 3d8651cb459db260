package processing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/queue"
	"github.com/xaionaro-go/rsframe/types"
)

func TestCustomBlockQueue(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewCustomBlock(ctx, rt, publishInput, OptionName("echo"))
	require.NoError(t, err)
	defer b.Close(ctx)
	require.Equal(t, "CustomBlock(echo)", b.String())

	in := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer in.Release(ctx)
	require.ErrorAs(t, b.ProcessFrame(ctx, in), &types.ErrNotStarted{})
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))

	q, err := queue.New(ctx, rt, 2)
	require.NoError(t, err)
	defer q.Close(ctx)

	require.NoError(t, b.Start(ctx, q))
	require.True(t, b.IsStarted())
	require.ErrorAs(t, b.Start(ctx, q), &types.ErrAlreadyStarted{})
	require.ErrorAs(t, b.StartCallback(ctx, func(context.Context, frame.Abstract) {}), &types.ErrAlreadyStarted{})

	require.NoError(t, b.ProcessFrame(ctx, in))
	out, err := q.WaitForFrame(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, in.GetHandle(), out.GetHandle())
	require.EqualValues(t, 2, rt.RefCount(in.GetHandle()))
	out.Release(ctx)
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestCustomBlockCallback(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewCustomBlock(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		set, err := frame.FromFrame(ctx, in)
		if err != nil {
			return src.FrameReady(ctx, in)
		}
		defer set.Release(ctx)
		// publish the children one by one
		return set.ForEach(ctx, func(ctx context.Context, f frame.Abstract) error {
			return src.FrameReady(ctx, f)
		})
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	var (
		got  []native.Stream
		kept frame.Abstract
	)
	require.NoError(t, b.StartCallback(ctx, func(ctx context.Context, f frame.Abstract) {
		p, err := f.Profile(ctx)
		require.NoError(t, err)
		got = append(got, p.Stream)
		if p.Stream == native.StreamColor {
			// the frame is only borrowed: keeping it requires a clone
			kept, err = f.Clone(ctx)
			require.NoError(t, err)
		}
	}))

	depth := newVideoFrame(t, ctx, rt, smallDepthProfile, 1, nil)
	defer depth.Release(ctx)
	color := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer color.Release(ctx)
	set, err := (&FrameSource{API: rt}).AllocateCompositeFrame(ctx, depth, color)
	require.NoError(t, err)
	defer set.Release(ctx)

	require.NoError(t, b.ProcessFrames(ctx, set))
	require.Equal(t, []native.Stream{native.StreamDepth, native.StreamColor}, got)
	require.EqualValues(t, 2, b.Counters.Generated.Load())
	require.EqualValues(t, 2, rt.RefCount(depth.GetHandle()))
	require.EqualValues(t, 3, rt.RefCount(color.GetHandle()))
	require.EqualValues(t, 1, rt.RefCount(set.GetHandle()))

	require.NotNil(t, kept)
	require.Equal(t, color.GetHandle(), kept.GetHandle())
	kept.Release(ctx)
	require.EqualValues(t, 2, rt.RefCount(color.GetHandle()))
}

func TestCustomBlockOptions(t *testing.T) {
	ctx, rt := newRuntime(t)

	const optThreshold = native.OptionCustomBase + 1
	var seen float32
	b, err := NewCustomBlock(ctx, rt, nil)
	require.Error(t, err)
	require.Nil(t, b)

	b, err = NewCustomBlock(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		return nil
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	rng := native.OptionRange{Min: 0, Max: 10, Step: 1, Default: 5}
	require.NoError(t, b.RegisterOption(ctx, optThreshold, rng))
	require.Error(t, b.RegisterOption(ctx, optThreshold, rng))

	seen, err = b.Options().Get(ctx, optThreshold)
	require.NoError(t, err)
	require.Equal(t, float32(5), seen)
	require.NoError(t, b.Options().Set(ctx, optThreshold, 7))
	require.Error(t, b.Options().Set(ctx, optThreshold, 11))

	list, err := b.Options().List(ctx)
	require.NoError(t, err)
	require.Equal(t, []native.Option{optThreshold}, list)

	require.NoError(t, b.Close(ctx))
	require.ErrorAs(t, b.RegisterOption(ctx, optThreshold+1, rng), &types.ErrClosed{})
}
