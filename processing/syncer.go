package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/queue"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/xcontext"
	"go.uber.org/atomic"
)

// Syncer groups frames of different streams arriving close in time into
// frame sets. Frames are submitted one by one; the sets are collected
// from an internal queue.
type Syncer struct {
	API      native.API
	Counters types.BlockCounters

	handle    atomic.Uintptr
	queue     *queue.Queue
	closer    *astikit.Closer
	closeOnce sync.Once
}

var _ types.Closer = (*Syncer)(nil)

// NewSyncer creates a syncer keeping up to queueSize unread sets;
// queueSize <= 0 means queue.DefaultCapacity.
func NewSyncer(ctx context.Context, api native.API, queueSize int) (_ret *Syncer, _err error) {
	s := &Syncer{
		API:    api,
		closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			s.closer.Close()
		}
	}()

	q, err := queue.New(ctx, api, queueSize)
	if err != nil {
		return nil, err
	}
	s.queue = q
	s.closer.Add(func() { q.Close(xcontext.DetachDone(ctx)) })

	h, nerr := api.CreateProcessingBlock(native.BlockSpec{Kind: native.BlockKindSync})
	if nerr != nil {
		return nil, fmt.Errorf("unable to create a sync block: %w", internal.ErrorFrom(api, nerr))
	}
	s.handle.Store(uintptr(h))
	s.closer.Add(func() {
		if h := native.BlockHandle(s.handle.Swap(0)); h != 0 {
			api.DeleteProcessingBlock(h)
		}
	})

	if nerr := api.StartProcessingQueue(h, q.GetHandle()); nerr != nil {
		return nil, fmt.Errorf("unable to start the sync block: %w", internal.ErrorFrom(api, nerr))
	}
	logger.Debugf(ctx, "created %s", s)
	return s, nil
}

func (s *Syncer) String() string {
	return fmt.Sprintf("Syncer(%#x)", s.handle.Load())
}

func (s *Syncer) GetHandle() native.BlockHandle {
	return native.BlockHandle(s.handle.Load())
}

func (s *Syncer) Options() *BlockOptions {
	return &BlockOptions{API: s.API, Block: s.GetHandle()}
}

// SubmitFrame passes a new reference to f to the syncer; the caller keeps
// its own.
func (s *Syncer) SubmitFrame(ctx context.Context, f frame.Abstract) error {
	bh := s.GetHandle()
	if bh == 0 {
		return types.ErrClosed{}
	}
	if f == nil || f.IsReleased() {
		return types.ErrReleased{}
	}
	logger.Tracef(ctx, "SubmitFrame[%s](%s)", s, f)
	fh := f.GetHandle()
	if nerr := s.API.FrameAddRef(fh); nerr != nil {
		return internal.ErrorFrom(s.API, nerr)
	}
	s.Counters.Submitted.Inc()
	if nerr := s.API.ProcessFrame(bh, fh); nerr != nil {
		s.Counters.Failed.Inc()
		return fmt.Errorf("unable to sync %s: %w", f, internal.ErrorFrom(s.API, nerr))
	}
	return nil
}

// WaitForFrames waits up to timeout for the next set; on timeout it
// returns types.ErrTimeout.
func (s *Syncer) WaitForFrames(ctx context.Context, timeout time.Duration) (*frame.Set, error) {
	if s.GetHandle() == 0 {
		return nil, types.ErrClosed{}
	}
	set, err := s.queue.WaitForFrameSet(ctx, timeout)
	if err != nil {
		return nil, err
	}
	s.Counters.Retrieved.Inc()
	return set, nil
}

// PollForFrames returns the next set if there is one already.
func (s *Syncer) PollForFrames(ctx context.Context) (*frame.Set, bool, error) {
	if s.GetHandle() == 0 {
		return nil, false, types.ErrClosed{}
	}
	set, ok, err := s.queue.PollForFrameSet(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	s.Counters.Retrieved.Inc()
	return set, true, nil
}

func (s *Syncer) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close[%s]", s)
	defer func() { logger.Debugf(ctx, "/Close[%s]: %v", s, _err) }()
	var err error
	s.closeOnce.Do(func() {
		err = s.closer.Close()
	})
	return err
}
