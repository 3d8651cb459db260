package processing

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/queue"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// CallbackFunc receives the frames a started CustomBlock produces. The
// frame is released once the callback returns; Clone it to keep it.
type CallbackFunc func(ctx context.Context, f frame.Abstract)

type deliveryTarget struct {
	Queue    *queue.Queue
	Callback CallbackFunc
}

func (t *deliveryTarget) String() string {
	switch {
	case t == nil:
		return "<not started>"
	case t.Queue != nil:
		return t.Queue.String()
	default:
		return "callback"
	}
}

// CustomBlock runs a user function on every submitted frame and delivers
// whatever the function publishes to either a queue or a callback,
// selected once by Start or StartCallback.
type CustomBlock struct {
	API      native.API
	Counters types.BlockCounters

	ctx         context.Context
	name        string
	handle      atomic.Uintptr
	target      *deliveryTarget
	startLocker xsync.Mutex
}

var _ types.Closer = (*CustomBlock)(nil)

func NewCustomBlock(
	ctx context.Context,
	api native.API,
	fn ProcessFunc,
	opts ...Option,
) (*CustomBlock, error) {
	cfg := append(Options{OptionName("custom")}, opts...).config()
	h, err := createFuncBlock(ctx, api, fn)
	if err != nil {
		return nil, err
	}
	b := &CustomBlock{
		API:  api,
		ctx:  ctx,
		name: cfg.Name,
	}
	b.handle.Store(uintptr(h))
	logger.Debugf(ctx, "created %s", b)
	return b, nil
}

func (b *CustomBlock) String() string {
	return fmt.Sprintf("CustomBlock(%s)", b.name)
}

func (b *CustomBlock) GetHandle() native.BlockHandle {
	return native.BlockHandle(b.handle.Load())
}

func (b *CustomBlock) IsStarted() bool {
	return xatomic.LoadPointer(&b.target) != nil
}

func (b *CustomBlock) Options() *BlockOptions {
	return &BlockOptions{API: b.API, Block: b.GetHandle()}
}

// RegisterOption declares an option the user function can read through
// Options; its value starts at r.Default.
func (b *CustomBlock) RegisterOption(ctx context.Context, opt native.Option, r native.OptionRange) error {
	bh := b.GetHandle()
	if bh == 0 {
		return types.ErrClosed{}
	}
	if nerr := b.API.ProcessingBlockRegisterSimpleOption(bh, opt, r); nerr != nil {
		return fmt.Errorf("unable to register option %s: %w", opt, internal.ErrorFrom(b.API, nerr))
	}
	return nil
}

// Start makes the block publish into q. The queue is not owned by the
// block and has to outlive it.
func (b *CustomBlock) Start(ctx context.Context, q *queue.Queue) error {
	return b.start(ctx, &deliveryTarget{Queue: q}, func(bh native.BlockHandle) *native.Error {
		return b.API.StartProcessingQueue(bh, q.GetHandle())
	})
}

// StartCallback makes the block call fn with every published frame.
func (b *CustomBlock) StartCallback(ctx context.Context, fn CallbackFunc) error {
	return b.start(ctx, &deliveryTarget{Callback: fn}, func(bh native.BlockHandle) *native.Error {
		return b.API.StartProcessingFunc(bh, b.onFrame)
	})
}

func (b *CustomBlock) start(
	ctx context.Context,
	target *deliveryTarget,
	startFn func(native.BlockHandle) *native.Error,
) error {
	return xsync.DoR1(ctx, &b.startLocker, func() error {
		bh := b.GetHandle()
		if bh == 0 {
			return types.ErrClosed{}
		}
		if b.IsStarted() {
			return types.ErrAlreadyStarted{}
		}
		if nerr := startFn(bh); nerr != nil {
			return fmt.Errorf("unable to start %s: %w", b, internal.ErrorFrom(b.API, nerr))
		}
		xatomic.StorePointer(&b.target, target)
		logger.Debugf(ctx, "%s publishes to %s", b, target)
		return nil
	})
}

func (b *CustomBlock) onFrame(h native.FrameHandle) {
	ctx := b.ctx
	b.Counters.Generated.Inc()
	target := xatomic.LoadPointer(&b.target)
	if target == nil || target.Callback == nil {
		b.API.ReleaseFrame(h)
		return
	}
	f, err := frame.New(ctx, b.API, h)
	if err != nil {
		logger.Errorf(ctx, "unable to wrap the frame produced by %s: %v", b, err)
		errmon.ObserveErrorCtx(ctx, err)
		return
	}
	defer f.Release(ctx)
	b.Counters.Retrieved.Inc()
	target.Callback(ctx, f)
}

// ProcessFrame runs the user function on f. The caller keeps ownership
// of f. The block has to be started first.
func (b *CustomBlock) ProcessFrame(ctx context.Context, f frame.Abstract) error {
	bh := b.GetHandle()
	if bh == 0 {
		return types.ErrClosed{}
	}
	if f == nil || f.IsReleased() {
		return types.ErrReleased{}
	}
	if !b.IsStarted() {
		return types.ErrNotStarted{}
	}
	fh := f.GetHandle()
	if nerr := b.API.FrameAddRef(fh); nerr != nil {
		return internal.ErrorFrom(b.API, nerr)
	}
	b.Counters.Submitted.Inc()
	if nerr := b.API.ProcessFrame(bh, fh); nerr != nil {
		b.Counters.Failed.Inc()
		return fmt.Errorf("unable to process %s with %s: %w", f, b, internal.ErrorFrom(b.API, nerr))
	}
	return nil
}

func (b *CustomBlock) ProcessFrames(ctx context.Context, set *frame.Set) error {
	return b.ProcessFrame(ctx, set)
}

func (b *CustomBlock) Close(ctx context.Context) error {
	ctx = xcontext.DetachDone(ctx)
	h := native.BlockHandle(b.handle.Swap(0))
	if h == 0 {
		return nil
	}
	b.API.DeleteProcessingBlock(h)
	logger.Debugf(ctx, "closed %s", b)
	return nil
}
