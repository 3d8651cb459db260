// Package queue wraps native bounded frame queues.
package queue

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/xcontext"
	"go.uber.org/atomic"
)

const DefaultCapacity = 1

// Queue is a bounded FIFO of frames. When a frame arrives at full
// capacity the native layer drops the oldest one.
//
// Frames still queued on Close are released, not leaked.
type Queue struct {
	API      native.API
	handle   atomic.Uintptr
	capacity int
}

var _ types.Closer = (*Queue)(nil)

func New(
	ctx context.Context,
	api native.API,
	capacity int,
) (*Queue, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	h, nerr := api.CreateFrameQueue(capacity)
	if nerr != nil {
		return nil, fmt.Errorf("unable to create a frame queue: %w", internal.ErrorFrom(api, nerr))
	}
	q := &Queue{
		API:      api,
		capacity: capacity,
	}
	q.handle.Store(uintptr(h))
	logger.Debugf(ctx, "created %s", q)
	return q, nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("FrameQueue(%#x, capacity:%d)", q.handle.Load(), q.capacity)
}

func (q *Queue) Capacity() int {
	return q.capacity
}

// GetHandle returns the native queue; 0 if closed.
func (q *Queue) GetHandle() native.QueueHandle {
	return native.QueueHandle(q.handle.Load())
}

func (q *Queue) getHandle() (native.QueueHandle, error) {
	h := q.GetHandle()
	if h == 0 {
		return 0, types.ErrClosed{}
	}
	return h, nil
}

// Enqueue publishes a new reference to f; the caller keeps its own.
func (q *Queue) Enqueue(ctx context.Context, f frame.Abstract) error {
	qh, err := q.getHandle()
	if err != nil {
		return err
	}
	if f == nil || f.IsReleased() {
		return types.ErrReleased{}
	}
	fh := f.GetHandle()
	if nerr := q.API.FrameAddRef(fh); nerr != nil {
		return internal.ErrorFrom(q.API, nerr)
	}
	logger.Tracef(ctx, "enqueue %s into %s", f, q)
	q.API.EnqueueFrame(fh, qh)
	return nil
}

// PollForFrame returns (nil, false, nil) if the queue is empty.
func (q *Queue) PollForFrame(ctx context.Context) (frame.Abstract, bool, error) {
	qh, err := q.getHandle()
	if err != nil {
		return nil, false, err
	}
	fh, ok, nerr := q.API.PollForFrame(qh)
	if nerr != nil {
		return nil, false, internal.ErrorFrom(q.API, nerr)
	}
	if !ok {
		return nil, false, nil
	}
	f, err := frame.New(ctx, q.API, fh)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// WaitForFrame blocks until a frame arrives, returning types.ErrTimeout
// after timeout.
func (q *Queue) WaitForFrame(ctx context.Context, timeout time.Duration) (_ret frame.Abstract, _err error) {
	logger.Tracef(ctx, "WaitForFrame[%s](%v)", q, timeout)
	defer func() { logger.Tracef(ctx, "/WaitForFrame[%s](%v): %v %v", q, timeout, _ret, _err) }()
	qh, err := q.getHandle()
	if err != nil {
		return nil, err
	}
	fh, ok, nerr := q.API.TryWaitForFrame(qh, timeout)
	if nerr != nil {
		return nil, internal.ErrorFrom(q.API, nerr)
	}
	if !ok {
		return nil, types.ErrTimeout{Timeout: timeout}
	}
	return frame.New(ctx, q.API, fh)
}

func (q *Queue) PollForFrameSet(ctx context.Context) (*frame.Set, bool, error) {
	f, ok, err := q.PollForFrame(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	set, err := frame.As[*frame.Set](ctx, f)
	if err != nil {
		return nil, false, err
	}
	return set, true, nil
}

func (q *Queue) WaitForFrameSet(ctx context.Context, timeout time.Duration) (*frame.Set, error) {
	f, err := q.WaitForFrame(ctx, timeout)
	if err != nil {
		return nil, err
	}
	return frame.As[*frame.Set](ctx, f)
}

// Frames drains what is queued at the moment; it does not wait for new
// frames. Yielded frames are owned by the consumer.
func (q *Queue) Frames(ctx context.Context) iter.Seq2[frame.Abstract, error] {
	return func(yield func(frame.Abstract, error) bool) {
		for {
			f, ok, err := q.PollForFrame(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Close deletes the native queue together with the frames still in it.
func (q *Queue) Close(ctx context.Context) error {
	ctx = xcontext.DetachDone(ctx)
	h := native.QueueHandle(q.handle.Swap(0))
	if h == 0 {
		return nil
	}
	q.API.DeleteFrameQueue(h)
	logger.Debugf(ctx, "closed FrameQueue(%#x)", uintptr(h))
	return nil
}
