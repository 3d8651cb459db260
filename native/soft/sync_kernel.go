package soft

import (
	"github.com/go-ng/container/heap"
	"github.com/go-ng/xsort"
	"github.com/xaionaro-go/rsframe/native"
)

// streamOrder identifies a (stream, index) pair and orders sets' children
// by stream type first, then by index.
type streamOrder int64

func streamOrderOf(p native.StreamProfile) streamOrder {
	return streamOrder(int64(p.Stream)<<32 | int64(uint32(p.Index)))
}

type pendingFrame struct {
	Handle    native.FrameHandle
	Timestamp float64
	Seq       uint64
}

// pendingFrames is a min-heap by timestamp; arrival order breaks ties.
type pendingFrames []pendingFrame

func (s pendingFrames) Len() int {
	return len(s)
}

func (s pendingFrames) Less(i, j int) bool {
	if s[i].Timestamp != s[j].Timestamp {
		return s[i].Timestamp < s[j].Timestamp
	}
	return s[i].Seq < s[j].Seq
}

func (s pendingFrames) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// syncKernel bundles the latest frame of every stream it has seen into a
// composite frame. A set is published as soon as each known stream has a
// pending frame. Of two pending frames of a stream the one with the older
// timestamp is dropped, even if it arrived later.
type syncKernel struct {
	known   map[streamOrder]struct{}
	pending map[streamOrder]*pendingFrames
	seq     uint64
}

func newSyncKernel() *syncKernel {
	return &syncKernel{
		known:   map[streamOrder]struct{}{},
		pending: map[streamOrder]*pendingFrames{},
	}
}

func (k *syncKernel) Process(kctx KernelContext, in native.FrameHandle) *native.Error {
	r := kctx.Runtime
	rec, nerr := r.lookup("sync", in)
	if nerr != nil {
		r.ReleaseFrame(in)
		return nerr
	}
	if rec.extensions.Has(native.ExtensionCompositeFrame) {
		// already a set: unbundle it
		children := append([]native.FrameHandle(nil), rec.children...)
		for _, child := range children {
			if nerr := r.FrameAddRef(child); nerr != nil {
				r.ReleaseFrame(in)
				return nerr
			}
		}
		r.ReleaseFrame(in)
		for _, child := range children {
			if nerr := k.Process(kctx, child); nerr != nil {
				return nerr
			}
		}
		return nil
	}

	key := streamOrderOf(rec.profile)
	k.known[key] = struct{}{}
	queue := k.pending[key]
	if queue == nil {
		queue = &pendingFrames{}
		k.pending[key] = queue
	}
	k.seq++
	heap.Push(queue, pendingFrame{Handle: in, Timestamp: rec.timestamp, Seq: k.seq})
	for len(*queue) > 1 {
		stale := heap.Pop(queue)
		r.ReleaseFrame(stale.Handle)
	}
	if len(k.pending) < len(k.known) {
		return nil
	}

	var orders xsort.OrderedAsc[streamOrder]
	for key := range k.pending {
		heap.Push(&orders, key)
	}
	frames := make([]native.FrameHandle, 0, len(orders))
	for len(orders) > 0 {
		key := heap.Pop(&orders)
		frames = append(frames, heap.Pop(k.pending[key]).Handle)
	}
	clear(k.pending)

	set, nerr := r.AllocateCompositeFrame(kctx.Source, frames)
	if nerr != nil {
		for _, f := range frames {
			r.ReleaseFrame(f)
		}
		return nerr
	}
	return kctx.Publish(set)
}

func (k *syncKernel) Reset(r *Runtime) {
	for _, queue := range k.pending {
		for len(*queue) > 0 {
			r.ReleaseFrame(heap.Pop(queue).Handle)
		}
	}
	clear(k.pending)
	clear(k.known)
}
