package soft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/rsframe/native"
)

var testProfile = native.StreamProfile{Stream: native.StreamDepth, Format: native.FormatZ16, Width: 2, Height: 2, FPS: 30}

func newTestRuntime(t *testing.T, opts ...Option) (context.Context, *Runtime) {
	t.Helper()
	ctx := context.Background()
	r := New(ctx, opts...)
	t.Cleanup(func() {
		require.Zero(t, r.Stats().LiveFrames, "frames leaked")
	})
	return ctx, r
}

func TestCapturedFramesQuota(t *testing.T) {
	_, r := newTestRuntime(t, OptionFramesQueueSize(2))

	var handles []native.FrameHandle
	for range 2 {
		h, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: testProfile}})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	_, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: testProfile}})
	require.True(t, errors.As(err, &ErrQuotaExceeded{}))
	require.EqualValues(t, 1, r.Stats().QuotaExceeded)

	// other streams have their own quota
	other := testProfile
	other.Stream = native.StreamInfrared
	h, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: other}})
	require.NoError(t, err)
	r.ReleaseFrame(h)

	r.ReleaseFrame(handles[0])
	h, err = r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: testProfile}})
	require.NoError(t, err)
	r.ReleaseFrame(h)
	r.ReleaseFrame(handles[1])
}

func TestSyntheticFramesQuota(t *testing.T) {
	_, r := newTestRuntime(t, OptionFramesQueueSize(1))

	var allocated []native.FrameHandle
	b, nerr := r.CreateProcessingBlockFunc(func(in native.FrameHandle, src native.SourceHandle) {
		defer r.ReleaseFrame(in)
		for range 2 {
			h, nerr := r.AllocateSyntheticVideoFrame(src, native.StreamProfile{}, in, 0, 2, 2, 0, native.ExtensionDepthFrame)
			require.Nil(t, nerr)
			allocated = append(allocated, h)
		}
	})
	require.Nil(t, nerr)
	defer r.DeleteProcessingBlock(b)

	in, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: testProfile}})
	require.NoError(t, err)
	require.Nil(t, r.FrameAddRef(in))
	require.Nil(t, r.ProcessFrame(b, in))

	require.Len(t, allocated, 2)
	require.NotZero(t, allocated[0])
	require.Zero(t, allocated[1], "the second frame must not fit into the quota of the source")
	r.ReleaseFrame(allocated[0])
	r.ReleaseFrame(in)
}

func TestReleaseFreesChildren(t *testing.T) {
	_, r := newTestRuntime(t)

	a, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: testProfile}})
	require.NoError(t, err)
	p := testProfile
	p.Stream = native.StreamColor
	p.Format = native.FormatRGB8
	b, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: p}})
	require.NoError(t, err)

	set, err := r.NewCompositeFrame(a, b)
	require.NoError(t, err)
	count, nerr := r.EmbeddedFramesCount(set)
	require.Nil(t, nerr)
	require.Equal(t, 2, count)

	child, nerr := r.ExtractFrame(set, 1)
	require.Nil(t, nerr)
	require.Equal(t, b, child)
	require.EqualValues(t, 2, r.RefCount(b))

	_, nerr = r.ExtractFrame(set, 2)
	require.NotNil(t, nerr)
	require.Equal(t, "Requested index is out of range!", nerr.Message)
	r.FreeError(nerr)

	r.ReleaseFrame(set)
	require.Zero(t, r.RefCount(a))
	require.EqualValues(t, 1, r.RefCount(b))
	r.ReleaseFrame(child)
}

func TestSyncKernelBundlesLatest(t *testing.T) {
	_, r := newTestRuntime(t)

	q, nerr := r.CreateFrameQueue(4)
	require.Nil(t, nerr)
	defer r.DeleteFrameQueue(q)
	b, nerr := r.CreateProcessingBlock(native.BlockSpec{Kind: native.BlockKindSync})
	require.Nil(t, nerr)
	defer r.DeleteProcessingBlock(b)
	require.Nil(t, r.StartProcessingQueue(b, q))

	color := testProfile
	color.Stream, color.Format = native.StreamColor, native.FormatRGB8
	submit := func(p native.StreamProfile, number uint64) native.FrameHandle {
		h, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: p, Number: number}})
		require.NoError(t, err)
		require.Nil(t, r.FrameAddRef(h))
		require.Nil(t, r.ProcessFrame(b, h))
		r.ReleaseFrame(h)
		return h
	}

	submit(testProfile, 1)
	require.Equal(t, 1, r.QueueLen(q))
	staleColor := submit(color, 1)
	require.Equal(t, 1, r.QueueLen(q))
	submit(color, 2)
	require.Zero(t, r.RefCount(staleColor), "a newer frame of the stream replaces the pending one")
	depth := submit(testProfile, 3)
	require.Equal(t, 2, r.QueueLen(q))

	first, ok, nerr := r.PollForFrame(q)
	require.Nil(t, nerr)
	require.True(t, ok)
	r.ReleaseFrame(first)

	set, ok, nerr := r.PollForFrame(q)
	require.Nil(t, nerr)
	require.True(t, ok)
	child, nerr := r.ExtractFrame(set, 0)
	require.Nil(t, nerr)
	require.Equal(t, depth, child)
	r.ReleaseFrame(child)
	r.ReleaseFrame(set)
}

func TestSyncKernelKeepsNewestTimestamp(t *testing.T) {
	_, r := newTestRuntime(t)

	q, nerr := r.CreateFrameQueue(4)
	require.Nil(t, nerr)
	defer r.DeleteFrameQueue(q)
	b, nerr := r.CreateProcessingBlock(native.BlockSpec{Kind: native.BlockKindSync})
	require.Nil(t, nerr)
	defer r.DeleteProcessingBlock(b)
	require.Nil(t, r.StartProcessingQueue(b, q))

	color := testProfile
	color.Stream, color.Format = native.StreamColor, native.FormatRGB8
	submit := func(p native.StreamProfile, ts float64) native.FrameHandle {
		h, err := r.NewVideoFrame(VideoFrameParams{FrameParams: FrameParams{Profile: p, Timestamp: ts}})
		require.NoError(t, err)
		require.Nil(t, r.FrameAddRef(h))
		require.Nil(t, r.ProcessFrame(b, h))
		r.ReleaseFrame(h)
		return h
	}

	submit(testProfile, 10)
	first, ok, nerr := r.PollForFrame(q)
	require.Nil(t, nerr)
	require.True(t, ok)
	r.ReleaseFrame(first)

	// color arrives out of order: the late but older frame is dropped
	newer := submit(color, 40)
	older := submit(color, 30)
	require.Zero(t, r.RefCount(older))
	require.EqualValues(t, 1, r.RefCount(newer))
	depth := submit(testProfile, 41)

	set, ok, nerr := r.PollForFrame(q)
	require.Nil(t, nerr)
	require.True(t, ok)
	defer r.ReleaseFrame(set)
	count, nerr := r.EmbeddedFramesCount(set)
	require.Nil(t, nerr)
	require.Equal(t, 2, count)

	// children are ordered by stream: depth before color
	for idx, want := range []native.FrameHandle{depth, newer} {
		child, nerr := r.ExtractFrame(set, idx)
		require.Nil(t, nerr)
		require.Equal(t, want, child)
		r.ReleaseFrame(child)
	}
}

func TestTryWaitForFrameTimeout(t *testing.T) {
	_, r := newTestRuntime(t)

	q, nerr := r.CreateFrameQueue(1)
	require.Nil(t, nerr)
	defer r.DeleteFrameQueue(q)

	startedAt := time.Now()
	_, ok, nerr := r.TryWaitForFrame(q, 50*time.Millisecond)
	require.Nil(t, nerr)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(startedAt), 50*time.Millisecond)

	r.DeleteFrameQueue(q)
	_, _, nerr = r.TryWaitForFrame(q, time.Millisecond)
	require.NotNil(t, nerr)
	require.Equal(t, native.ExceptionTypeWrongAPICallSequence, nerr.Type)
}

func TestSensor(t *testing.T) {
	ctx, r := newTestRuntime(t)

	p := testProfile
	p.FPS = 200
	frames := make(chan native.FrameHandle, 16)
	s := r.StartSensor(ctx, SensorConfig{
		Profile: p,
		Fill: func(n uint64, data []byte) {
			data[0] = byte(n)
		},
	}, func(h native.FrameHandle) {
		select {
		case frames <- h:
		default:
			r.ReleaseFrame(h)
		}
	})

	for expected := uint64(1); expected <= 3; expected++ {
		select {
		case h := <-frames:
			number, nerr := r.GetFrameNumber(h)
			require.Nil(t, nerr)
			require.Equal(t, expected, number)
			data, nerr := r.GetFrameData(h)
			require.Nil(t, nerr)
			require.Equal(t, byte(expected), data[0])
			r.ReleaseFrame(h)
		case <-time.After(time.Second):
			t.Fatal("no frame from the sensor")
		}
	}
	require.NoError(t, s.Close(ctx))
	close(frames)
	for h := range frames {
		r.ReleaseFrame(h)
	}
	require.GreaterOrEqual(t, s.Produced.Load(), uint64(3))
}

func TestFailNext(t *testing.T) {
	_, r := newTestRuntime(t)

	r.FailNext("CreateFrameQueue", &native.Error{Message: "boom", Type: native.ExceptionTypeIO})
	_, nerr := r.CreateFrameQueue(1)
	require.NotNil(t, nerr)
	require.Equal(t, "CreateFrameQueue", nerr.Function)
	r.FreeError(nerr)
	require.EqualValues(t, 1, r.Stats().FreedErrors)

	q, nerr := r.CreateFrameQueue(1)
	require.Nil(t, nerr)
	r.DeleteFrameQueue(q)
}
