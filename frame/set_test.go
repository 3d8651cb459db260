package frame

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/native/soft"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/typing"
)

type testSet struct {
	Set      *Set
	Children []native.FrameHandle
}

// newTestSet builds a set of depth, color and infrared frames; the
// children are referenced only by the set.
func newTestSet(t *testing.T, ctx context.Context, rt *soft.Runtime, streams ...native.StreamProfile) testSet {
	t.Helper()
	var children []native.FrameHandle
	for idx, p := range streams {
		p.Width, p.Height = 4, 2
		h, err := rt.NewVideoFrame(soft.VideoFrameParams{
			FrameParams: soft.FrameParams{Profile: p, Number: uint64(idx + 1)},
		})
		require.NoError(t, err)
		children = append(children, h)
	}
	h, err := rt.NewCompositeFrame(children...)
	require.NoError(t, err)
	set, err := NewAs[*Set](ctx, rt, h)
	require.NoError(t, err)
	return testSet{Set: set, Children: children}
}

var abcStreams = []native.StreamProfile{
	{Stream: native.StreamDepth, Format: native.FormatZ16},
	{Stream: native.StreamColor, Format: native.FormatRGB8},
	{Stream: native.StreamInfrared, Format: native.FormatY8, Index: 1},
}

func TestSetRoundTrip(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt, abcStreams...)
	defer ts.Set.Release(ctx)

	require.Equal(t, 3, ts.Set.Count())
	var got []native.FrameHandle
	for f, err := range ts.Set.All(ctx) {
		require.NoError(t, err)
		got = append(got, f.GetHandle())
		require.EqualValues(t, 2, rt.RefCount(f.GetHandle()))
		f.Release(ctx)
	}
	require.Equal(t, ts.Children, got)
	for _, h := range ts.Children {
		require.EqualValues(t, 1, rt.RefCount(h))
	}

	_, err := ts.Set.At(ctx, 3)
	var errRange types.ErrIndexOutOfRange
	require.ErrorAs(t, err, &errRange)
	require.Equal(t, 3, errRange.Count)
}

func TestSetGetStreamDoesNotLeak(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt, abcStreams...)

	color, err := ts.Set.FirstOrDefault(ctx, native.StreamColor, typing.Optional[native.Format]{})
	require.NoError(t, err)
	require.NotNil(t, color)
	require.Equal(t, ts.Children[1], color.GetHandle())

	// the depth frame inspected on the way is released again
	require.EqualValues(t, 1, rt.RefCount(ts.Children[0]))
	require.EqualValues(t, 2, rt.RefCount(ts.Children[1]))
	require.EqualValues(t, 1, rt.RefCount(ts.Children[2]))

	ir, err := ts.Set.Get(ctx, native.StreamInfrared, 1)
	require.NoError(t, err)
	require.Equal(t, ts.Children[2], ir.GetHandle())

	missing, err := ts.Set.Get(ctx, native.StreamInfrared, 2)
	require.NoError(t, err)
	require.Nil(t, missing)

	missing, err = ts.Set.FirstOrDefault(ctx, native.StreamFisheye, typing.Optional[native.Format]{})
	require.NoError(t, err)
	require.Nil(t, missing)

	color.Release(ctx)
	ir.Release(ctx)
	ts.Set.Release(ctx)
	for _, h := range ts.Children {
		require.Zero(t, rt.RefCount(h))
	}
}

func TestSetFromFrame(t *testing.T) {
	ctx, rt := newRuntime(t)

	plain, err := New(ctx, rt, newVideoHandle(t, rt, native.StreamColor, native.FormatRGB8, 1))
	require.NoError(t, err)
	defer plain.Release(ctx)
	_, err = FromFrame(ctx, plain)
	require.ErrorAs(t, err, &types.ErrNotComposite{})

	ts := newTestSet(t, ctx, rt, abcStreams...)
	asFrame, err := ts.Set.AsFrame(ctx)
	require.NoError(t, err)
	ts.Set.Release(ctx)

	set, err := FromFrame(ctx, asFrame)
	require.NoError(t, err)
	require.Equal(t, 3, set.Count())
	require.EqualValues(t, 2, rt.RefCount(asFrame.GetHandle()))
	asFrame.Release(ctx)
	set.Release(ctx)
}

func TestSetTypedAccessors(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt, abcStreams...)

	depth, err := ts.Set.DepthFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, KindDepth, depth.Kind())
	color, err := ts.Set.ColorFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, ts.Children[1], color.GetHandle())
	ir, err := ts.Set.InfraredFrame(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, ts.Children[2], ir.GetHandle())

	// all three are owned by the set now
	ts.Set.Release(ctx)
	require.True(t, depth.IsReleased())
	require.True(t, color.IsReleased())
	require.True(t, ir.IsReleased())
	for _, h := range ts.Children {
		require.Zero(t, rt.RefCount(h))
	}
}

func TestSetColorFallsBackToInfrared(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt,
		native.StreamProfile{Stream: native.StreamDepth, Format: native.FormatZ16},
		native.StreamProfile{Stream: native.StreamInfrared, Format: native.FormatRGB8},
	)
	defer ts.Set.Release(ctx)

	color, err := ts.Set.ColorFrame(ctx)
	require.NoError(t, err)
	require.NotNil(t, color)
	require.Equal(t, ts.Children[1], color.GetHandle())
}

func TestSetDisposables(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt, abcStreams...)

	other, err := New(ctx, rt, newVideoHandle(t, rt, native.StreamFisheye, native.FormatY8, 1))
	require.NoError(t, err)
	require.Same(t, other, DisposeWith(ctx, other, ts.Set))

	closed := false
	ts.Set.AddDisposable(ctx, types.CloserFunc(func(context.Context) error {
		closed = true
		return nil
	}))

	require.NoError(t, ts.Set.Close(ctx))
	require.True(t, closed)
	require.True(t, other.IsReleased())
}

func TestSetForEach(t *testing.T) {
	ctx, rt := newRuntime(t)
	ts := newTestSet(t, ctx, rt, abcStreams...)
	defer ts.Set.Release(ctx)

	var streams []native.Stream
	require.NoError(t, ts.Set.ForEach(ctx, func(ctx context.Context, f Abstract) error {
		p, err := f.Profile(ctx)
		if err != nil {
			return err
		}
		streams = append(streams, p.Stream)
		return nil
	}))
	require.Equal(t, []native.Stream{native.StreamDepth, native.StreamColor, native.StreamInfrared}, streams)
	for _, h := range ts.Children {
		require.EqualValues(t, 1, rt.RefCount(h))
	}
}
