package soft

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
)

// frameQueue drops the oldest frame when a new one arrives at full
// capacity, so a stalled consumer always sees the freshest data.
type frameQueue struct {
	capacity int
	items    []native.FrameHandle
	changed  chan struct{}
	deleted  bool
}

func queueArgs(q native.QueueHandle) string {
	return fmt.Sprintf("queue:%#x", uintptr(q))
}

func (r *Runtime) CreateFrameQueue(capacity int) (native.QueueHandle, *native.Error) {
	if nerr := r.takeInjected("CreateFrameQueue"); nerr != nil {
		return 0, nerr
	}
	if capacity < 1 {
		return 0, newError("CreateFrameQueue", fmt.Sprintf("capacity:%d", capacity), native.ExceptionTypeInvalidValue, "the capacity must be positive")
	}
	q := native.QueueHandle(r.newHandle())
	r.do(func() {
		r.queues[q] = &frameQueue{
			capacity: capacity,
			changed:  make(chan struct{}),
		}
	})
	logger.Debugf(r.ctx, "created frame queue %#x with capacity %d", uintptr(q), capacity)
	return q, nil
}

func (r *Runtime) DeleteFrameQueue(q native.QueueHandle) {
	var released int
	r.do(func() {
		fq, ok := r.queues[q]
		if !ok {
			return
		}
		delete(r.queues, q)
		for _, h := range fq.items {
			r.releaseLocked(h)
		}
		released = len(fq.items)
		fq.items = nil
		fq.deleted = true
		close(fq.changed)
	})
	logger.Debugf(r.ctx, "deleted frame queue %#x; released %d queued frames", uintptr(q), released)
}

func (r *Runtime) EnqueueFrame(h native.FrameHandle, q native.QueueHandle) {
	r.do(func() {
		r.enqueueLocked(h, q)
	})
}

func (r *Runtime) enqueueLocked(h native.FrameHandle, q native.QueueHandle) {
	fq, ok := r.queues[q]
	if !ok {
		logger.Errorf(r.ctx, "enqueue of frame %#x into an unknown queue %#x", uintptr(h), uintptr(q))
		r.releaseLocked(h)
		return
	}
	if len(fq.items) >= fq.capacity {
		dropped := fq.items[0]
		fq.items = fq.items[1:]
		r.stats.QueueDrops.Inc()
		logger.Tracef(r.ctx, "queue %#x is full; dropping frame %#x", uintptr(q), uintptr(dropped))
		r.releaseLocked(dropped)
	}
	fq.items = append(fq.items, h)
	close(fq.changed)
	fq.changed = make(chan struct{})
}

func (r *Runtime) pollLocked(q native.QueueHandle) (native.FrameHandle, <-chan struct{}, *native.Error) {
	fq, ok := r.queues[q]
	if !ok {
		return 0, nil, newError("PollForFrame", queueArgs(q), native.ExceptionTypeWrongAPICallSequence, "the queue does not exist or is deleted")
	}
	if len(fq.items) == 0 {
		return 0, fq.changed, nil
	}
	h := fq.items[0]
	fq.items[0] = 0
	fq.items = fq.items[1:]
	return h, nil, nil
}

func (r *Runtime) PollForFrame(q native.QueueHandle) (native.FrameHandle, bool, *native.Error) {
	if nerr := r.takeInjected("PollForFrame"); nerr != nil {
		return 0, false, nerr
	}
	var (
		h    native.FrameHandle
		nerr *native.Error
	)
	r.do(func() {
		h, _, nerr = r.pollLocked(q)
	})
	return h, h != 0, nerr
}

func (r *Runtime) TryWaitForFrame(q native.QueueHandle, timeout time.Duration) (native.FrameHandle, bool, *native.Error) {
	if nerr := r.takeInjected("TryWaitForFrame"); nerr != nil {
		return 0, false, nerr
	}
	deadline := r.clock.Now().Add(timeout)
	for {
		var (
			h       native.FrameHandle
			changed <-chan struct{}
			nerr    *native.Error
		)
		r.do(func() {
			h, changed, nerr = r.pollLocked(q)
		})
		if nerr != nil {
			nerr.Function = "TryWaitForFrame"
			return 0, false, nerr
		}
		if h != 0 {
			return h, true, nil
		}

		remaining := deadline.Sub(r.clock.Now())
		if remaining <= 0 {
			return 0, false, nil
		}
		timer := r.clock.Timer(remaining)
		select {
		case <-changed:
			timer.Stop()
		case <-timer.C:
			return 0, false, nil
		}
	}
}

// QueueLen returns the amount of frames waiting in the queue.
func (r *Runtime) QueueLen(q native.QueueHandle) int {
	var n int
	r.do(func() {
		if fq, ok := r.queues[q]; ok {
			n = len(fq.items)
		}
	})
	return n
}
