package queue

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

func newFrame(t *testing.T, ctx context.Context, rt *soft.Runtime, timestamp float64) frame.Abstract {
	t.Helper()
	h, err := rt.NewVideoFrame(soft.VideoFrameParams{
		FrameParams: soft.FrameParams{
			Profile: native.StreamProfile{
				Stream: native.StreamColor,
				Format: native.FormatRGB8,
				Width:  2,
				Height: 2,
			},
			Timestamp: timestamp,
		},
	})
	require.NoError(t, err)
	f, err := frame.New(ctx, rt, h)
	require.NoError(t, err)
	return f
}

func TestQueueFIFO(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 3)
	require.NoError(t, err)
	defer q.Close(ctx)

	for _, ts := range []float64{1, 2, 3} {
		f := newFrame(t, ctx, rt, ts)
		require.NoError(t, q.Enqueue(ctx, f))
		f.Release(ctx)
	}

	var got []float64
	for f, err := range q.Frames(ctx) {
		require.NoError(t, err)
		ts, err := f.Timestamp(ctx)
		require.NoError(t, err)
		got = append(got, ts)
		f.Release(ctx)
	}
	require.Equal(t, []float64{1, 2, 3}, got)

	_, ok, err := q.PollForFrame(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQueueDropsOldest(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 2)
	require.NoError(t, err)
	defer q.Close(ctx)

	for _, ts := range []float64{1, 2, 3} {
		f := newFrame(t, ctx, rt, ts)
		require.NoError(t, q.Enqueue(ctx, f))
		f.Release(ctx)
	}
	require.EqualValues(t, 1, rt.Stats().QueueDrops)

	f, err := q.WaitForFrame(ctx, time.Second)
	require.NoError(t, err)
	ts, err := f.Timestamp(ctx)
	require.NoError(t, err)
	require.Equal(t, float64(2), ts)
	f.Release(ctx)
}

func TestQueueWaitTimeout(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 1)
	require.NoError(t, err)
	defer q.Close(ctx)

	startedAt := time.Now()
	_, err = q.WaitForFrame(ctx, 50*time.Millisecond)
	elapsed := time.Since(startedAt)

	var errTimeout types.ErrTimeout
	require.ErrorAs(t, err, &errTimeout)
	require.Equal(t, 50*time.Millisecond, errTimeout.Timeout)
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Less(t, elapsed, 150*time.Millisecond)
}

func TestQueueWaitWakesUp(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 1)
	require.NoError(t, err)
	defer q.Close(ctx)

	f := newFrame(t, ctx, rt, 42)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(ctx, f)
		f.Release(ctx)
	}()

	got, err := q.WaitForFrame(ctx, time.Second)
	require.NoError(t, err)
	ts, err := got.Timestamp(ctx)
	require.NoError(t, err)
	require.Equal(t, float64(42), ts)
	got.Release(ctx)
}

func TestQueueEnqueueKeepsCallerReference(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 1)
	require.NoError(t, err)
	defer q.Close(ctx)

	f := newFrame(t, ctx, rt, 1)
	h := f.GetHandle()
	require.NoError(t, q.Enqueue(ctx, f))
	require.EqualValues(t, 2, rt.RefCount(h))
	require.False(t, f.IsReleased())
	f.Release(ctx)
	require.EqualValues(t, 1, rt.RefCount(h))

	require.ErrorAs(t, q.Enqueue(ctx, f), &types.ErrReleased{})
}

func TestQueueCloseReleasesQueuedFrames(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 4)
	require.NoError(t, err)

	var handles []native.FrameHandle
	for _, ts := range []float64{1, 2} {
		f := newFrame(t, ctx, rt, ts)
		handles = append(handles, f.GetHandle())
		require.NoError(t, q.Enqueue(ctx, f))
		f.Release(ctx)
	}
	require.NoError(t, q.Close(ctx))
	require.NoError(t, q.Close(ctx))
	for _, h := range handles {
		require.Zero(t, rt.RefCount(h))
	}

	_, _, err = q.PollForFrame(ctx)
	require.ErrorAs(t, err, &types.ErrClosed{})
}

func TestQueueWaitForFrameSet(t *testing.T) {
	ctx, rt := newRuntime(t)
	q, err := New(ctx, rt, 2)
	require.NoError(t, err)
	defer q.Close(ctx)

	f := newFrame(t, ctx, rt, 1)
	require.NoError(t, q.Enqueue(ctx, f))
	_, err = q.WaitForFrameSet(ctx, time.Second)
	require.ErrorAs(t, err, &types.ErrUnexpectedFrameType{})
	f.Release(ctx)
}
