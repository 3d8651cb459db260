package processing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/native/soft"
	"github.com/xaionaro-go/rsframe/types"
)

func newRuntime(t *testing.T) (context.Context, *soft.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := soft.New(ctx)
	t.Cleanup(func() {
		require.Zero(t, rt.Stats().LiveFrames, "frames leaked")
	})
	return ctx, rt
}

func newVideoFrame(
	t *testing.T,
	ctx context.Context,
	rt *soft.Runtime,
	profile native.StreamProfile,
	number uint64,
	data []byte,
) frame.Abstract {
	t.Helper()
	h, err := rt.NewVideoFrame(soft.VideoFrameParams{
		FrameParams: soft.FrameParams{
			Profile:   profile,
			Number:    number,
			Timestamp: float64(number) * 33,
		},
		Data: data,
	})
	require.NoError(t, err)
	f, err := frame.New(ctx, rt, h)
	require.NoError(t, err)
	return f
}

var (
	depthProfile = native.StreamProfile{Stream: native.StreamDepth, Format: native.FormatZ16, Width: 640, Height: 480, FPS: 30}
	colorProfile = native.StreamProfile{Stream: native.StreamColor, Format: native.FormatRGB8, Width: 4, Height: 2, FPS: 30}
)

// publishInput is a ProcessFunc publishing its input unchanged.
func publishInput(ctx context.Context, in frame.Abstract, src *FrameSource) error {
	return src.FrameReady(ctx, in)
}

func TestBlockCopiesDepthFrame(t *testing.T) {
	ctx, rt := newRuntime(t)

	var inRefsDuringCall int64
	b, err := NewBlockFromFunc(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		inRefsDuringCall = rt.RefCount(in.GetHandle())
		out, err := src.AllocateVideoFrame(ctx, native.StreamProfile{}, in, 16, 640, 480, 640*2, native.ExtensionDepthFrame)
		if err != nil {
			return err
		}
		defer out.Release(ctx)
		data, err := in.Data(ctx)
		if err != nil {
			return err
		}
		if err := out.CopyFrom(ctx, data); err != nil {
			return err
		}
		return src.FrameReady(ctx, out)
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	data := make([]byte, 640*480*2)
	data[0], data[1] = 0xd0, 0x07 // 2000 units
	in := newVideoFrame(t, ctx, rt, depthProfile, 1, data)
	defer in.Release(ctx)

	out, err := b.Process(ctx, in)
	require.NoError(t, err)
	defer out.Release(ctx)

	require.EqualValues(t, 2, inRefsDuringCall, "the block must hold exactly one reference of its own")
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
	require.EqualValues(t, 1, rt.RefCount(out.GetHandle()))
	require.NotEqual(t, in.GetHandle(), out.GetHandle())

	depth, ok := out.(frame.DepthFrame)
	require.True(t, ok)
	width, err := depth.Width(ctx)
	require.NoError(t, err)
	require.Equal(t, 640, width)
	dist, err := depth.Distance(ctx, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 2.0, dist, 1e-6)
	number, err := depth.Number(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, number)

	stats := b.Counters.ToStats()
	require.EqualValues(t, 1, stats.Submitted)
	require.EqualValues(t, 1, stats.Generated)
	require.EqualValues(t, 1, stats.Retrieved)
	require.EqualValues(t, 640*480*2, stats.DataBytes)
}

func TestBlockKeepsNewestResult(t *testing.T) {
	ctx, rt := newRuntime(t)

	var dropped []native.FrameHandle
	b, err := NewBlockFromFunc(ctx, rt, publishInput, OptionOnDrop(func(ctx context.Context, stale frame.Abstract) {
		dropped = append(dropped, stale.GetHandle())
		stale.Release(ctx)
	}))
	require.NoError(t, err)
	defer b.Close(ctx)

	first := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer first.Release(ctx)
	second := newVideoFrame(t, ctx, rt, colorProfile, 2, nil)
	defer second.Release(ctx)

	require.NoError(t, b.Submit(ctx, first))
	require.NoError(t, b.Submit(ctx, second))
	require.Equal(t, []native.FrameHandle{first.GetHandle()}, dropped)
	require.EqualValues(t, 1, rt.RefCount(first.GetHandle()))

	got, err := b.Retrieve(ctx)
	require.NoError(t, err)
	require.Equal(t, second.GetHandle(), got.GetHandle())
	got.Release(ctx)

	_, err = b.Retrieve(ctx)
	require.ErrorAs(t, err, &types.ErrOutOfFrameResources{})

	stats := b.Counters.ToStats()
	require.EqualValues(t, 2, stats.Submitted)
	require.EqualValues(t, 1, stats.Dropped)
	require.EqualValues(t, 1, stats.Missed)
}

func TestBlockNothingPublished(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, func(context.Context, frame.Abstract, *FrameSource) error {
		return nil
	}, OptionName("sink"))
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer in.Release(ctx)

	_, err = b.Process(ctx, in)
	var errOut types.ErrOutOfFrameResources
	require.ErrorAs(t, err, &errOut)
	require.Equal(t, "sink", errOut.Block)
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestBlockClose(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, publishInput)
	require.NoError(t, err)

	in := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer in.Release(ctx)

	// a result left in the slot is released on Close
	require.NoError(t, b.Submit(ctx, in))
	require.EqualValues(t, 2, rt.RefCount(in.GetHandle()))
	require.NoError(t, b.Close(ctx))
	require.NoError(t, b.Close(ctx))
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))

	_, err = b.Process(ctx, in)
	require.ErrorAs(t, err, &types.ErrClosed{})
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestBlockRejectsReleasedInput(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, publishInput)
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	in.Release(ctx)
	_, err = b.Process(ctx, in)
	require.ErrorAs(t, err, &types.ErrReleased{})
}

func TestFrameSourceCompositeFailureKeepsBalance(t *testing.T) {
	ctx, rt := newRuntime(t)

	other := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer other.Release(ctx)

	var (
		allocErr  error
		inRefs    int64
		otherRefs int64
	)
	b, err := NewBlockFromFunc(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		inRefs = rt.RefCount(in.GetHandle())
		rt.FailNext("AllocateCompositeFrame", &native.Error{
			Message: "injected",
			Type:    native.ExceptionTypeBackend,
		})
		_, allocErr = src.AllocateCompositeFrame(ctx, in, other)
		require.Equal(t, inRefs, rt.RefCount(in.GetHandle()))
		otherRefs = rt.RefCount(other.GetHandle())
		return allocErr
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, depthProfile, 1, nil)
	defer in.Release(ctx)

	_, err = b.Process(ctx, in)
	require.ErrorAs(t, err, &types.ErrOutOfFrameResources{})
	var nativeErr types.ErrNativeCall
	require.ErrorAs(t, allocErr, &nativeErr)
	require.Equal(t, "injected", nativeErr.Message)
	require.EqualValues(t, 1, otherRefs)
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestFrameSourceFramesReady(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		extra, err := AllocateVideoFrameAs[*frame.Video](ctx, src, colorProfile, nil, 0, 4, 2, 0, native.ExtensionVideoFrame)
		if err != nil {
			return err
		}
		defer extra.Release(ctx)
		set, err := src.AllocateCompositeFrame(ctx, in, extra)
		if err != nil {
			return err
		}
		return src.FramesReady(ctx, set)
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, depthProfile, 1, nil)
	defer in.Release(ctx)

	out, err := b.Process(ctx, in)
	require.NoError(t, err)
	set, ok := out.(*frame.Set)
	require.True(t, ok)
	require.Equal(t, 2, set.Count())
	require.EqualValues(t, 1, rt.RefCount(set.GetHandle()))
	require.EqualValues(t, 2, rt.RefCount(in.GetHandle()))
	set.Release(ctx)
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestFrameSourceAllocatesPoints(t *testing.T) {
	ctx, rt := newRuntime(t)

	var wrongTypeErr error
	b, err := NewBlockFromFunc(ctx, rt, func(ctx context.Context, in frame.Abstract, src *FrameSource) error {
		_, wrongTypeErr = AllocateVideoFrameAs[*frame.Depth](ctx, src, colorProfile, nil, 0, 4, 2, 0, native.ExtensionVideoFrame)

		points, err := AllocateVideoFrameAs[*frame.Points](ctx, src, depthProfile, in, 0, 4, 2, 0, native.ExtensionPoints)
		if err != nil {
			return err
		}
		defer points.Release(ctx)
		return src.FrameReady(ctx, points)
	})
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, depthProfile, 1, nil)
	defer in.Release(ctx)

	out, err := b.Process(ctx, in)
	require.NoError(t, err)
	defer out.Release(ctx)
	require.ErrorAs(t, wrongTypeErr, &types.ErrUnexpectedFrameType{})

	points, ok := out.(*frame.Points)
	require.True(t, ok)
	count, err := points.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, count)
	require.EqualValues(t, 1, rt.RefCount(points.GetHandle()))
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestBlockResultTimeout(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, publishInput, OptionResultTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer b.Close(ctx)

	startedAt := time.Now()
	_, err = b.Retrieve(ctx)
	elapsed := time.Since(startedAt)
	require.ErrorAs(t, err, &types.ErrOutOfFrameResources{})
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.EqualValues(t, 1, b.Counters.ToStats().Missed)
}

func TestBlockResultTimeoutLatePublish(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, publishInput, OptionResultTimeout(5*time.Second))
	require.NoError(t, err)
	defer b.Close(ctx)

	in := newVideoFrame(t, ctx, rt, colorProfile, 1, nil)
	defer in.Release(ctx)

	type result struct {
		Frame frame.Abstract
		Err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		f, err := b.Retrieve(ctx)
		resultCh <- result{Frame: f, Err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Submit(ctx, in))

	select {
	case r := <-resultCh:
		require.NoError(t, r.Err)
		require.Equal(t, in.GetHandle(), r.Frame.GetHandle())
		r.Frame.Release(ctx)
	case <-time.After(time.Second):
		t.Fatal("the result published during the wait was not delivered")
	}
	require.EqualValues(t, 1, rt.RefCount(in.GetHandle()))
}

func TestBlockResultTimeoutCancelled(t *testing.T) {
	ctx, rt := newRuntime(t)

	b, err := NewBlockFromFunc(ctx, rt, publishInput, OptionResultTimeout(time.Minute))
	require.NoError(t, err)
	defer b.Close(ctx)

	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = b.Retrieve(cancelledCtx)
	require.ErrorIs(t, err, context.Canceled)
}
