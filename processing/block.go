// block.go implements the synchronous Process call on top of a native
// processing block.

// Package processing provides processing blocks: native frame
// transformations turned into synchronous calls, and the means to write
// custom ones.
package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// ProcessFunc is the body of a block built from a function. in is
// released after the call returns; to keep it, Clone it.
type ProcessFunc func(ctx context.Context, in frame.Abstract, src *FrameSource) error

// Block turns a native processing block into a synchronous Process call.
//
// The block publishes its results into a single-slot channel which
// Process drains right after the submission. Because of the single slot
// only one Process call runs at a time per Block. If a second result is
// published before the first one is retrieved, the stale one is released
// (or passed to OptionOnDrop) and the newer one kept.
type Block struct {
	API      native.API
	Counters types.BlockCounters

	ctx    context.Context
	config config
	handle atomic.Uintptr
	result chan native.FrameHandle
	closed atomic.Bool

	processLocker xsync.Mutex
	slotLocker    xsync.Mutex

	closer    *astikit.Closer
	closeOnce sync.Once
}

var _ types.Closer = (*Block)(nil)

// NewBlock creates a block of one of the kinds provided by the native layer.
func NewBlock(
	ctx context.Context,
	api native.API,
	spec native.BlockSpec,
	opts ...Option,
) (*Block, error) {
	h, nerr := api.CreateProcessingBlock(spec)
	if nerr != nil {
		return nil, fmt.Errorf("unable to create a %s block: %w", spec, internal.ErrorFrom(api, nerr))
	}
	opts = append(Options{OptionName(spec.String())}, opts...)
	return newBlock(ctx, api, h, opts...)
}

// NewBlockFromFunc creates a block running fn on every submitted frame.
func NewBlockFromFunc(
	ctx context.Context,
	api native.API,
	fn ProcessFunc,
	opts ...Option,
) (*Block, error) {
	h, err := createFuncBlock(ctx, api, fn)
	if err != nil {
		return nil, err
	}
	opts = append(Options{OptionName("custom")}, opts...)
	return newBlock(ctx, api, h, opts...)
}

func createFuncBlock(
	ctx context.Context,
	api native.API,
	fn ProcessFunc,
) (native.BlockHandle, error) {
	if fn == nil {
		return 0, fmt.Errorf("the process function is not set")
	}
	h, nerr := api.CreateProcessingBlockFunc(func(in native.FrameHandle, srcHandle native.SourceHandle) {
		f, err := frame.New(ctx, api, in)
		if err != nil {
			logger.Errorf(ctx, "unable to wrap the frame to process: %v", err)
			errmon.ObserveErrorCtx(ctx, err)
			return
		}
		defer f.Release(ctx)
		src := &FrameSource{API: api, Handle: srcHandle}
		if err := fn(ctx, f, src); err != nil {
			logger.Errorf(ctx, "unable to process %s: %v", f, err)
			errmon.ObserveErrorCtx(ctx, err)
		}
	})
	if nerr != nil {
		return 0, fmt.Errorf("unable to create a processing block: %w", internal.ErrorFrom(api, nerr))
	}
	return h, nil
}

func newBlock(
	ctx context.Context,
	api native.API,
	h native.BlockHandle,
	opts ...Option,
) (*Block, error) {
	b := &Block{
		API:    api,
		ctx:    ctx,
		config: Options(opts).config(),
		result: make(chan native.FrameHandle, 1),
		closer: astikit.NewCloser(),
	}
	b.handle.Store(uintptr(h))

	// astikit.Closer runs the callbacks in reverse order: the slot is
	// drained first, then the native block is deleted.
	b.closer.Add(func() {
		if h := native.BlockHandle(b.handle.Swap(0)); h != 0 {
			api.DeleteProcessingBlock(h)
		}
	})
	b.closer.Add(b.drain)

	if nerr := api.StartProcessingFunc(h, b.onFrame); nerr != nil {
		err := internal.ErrorFrom(api, nerr)
		b.closer.Close()
		return nil, fmt.Errorf("unable to start the %s block: %w", b.config.Name, err)
	}
	logger.Debugf(ctx, "created %s: object %#x, native %#x", b, types.GetObjectID(b), uintptr(h))
	return b, nil
}

func (b *Block) String() string {
	return fmt.Sprintf("ProcessingBlock(%s)", b.config.Name)
}

// GetHandle returns the native block; 0 if closed.
func (b *Block) GetHandle() native.BlockHandle {
	return native.BlockHandle(b.handle.Load())
}

func (b *Block) Options() *BlockOptions {
	return &BlockOptions{API: b.API, Block: b.GetHandle()}
}

// onFrame is called by the native layer with a frame it published.
func (b *Block) onFrame(h native.FrameHandle) {
	ctx := xsync.WithNoLogging(b.ctx, true)
	internal.Assertf(ctx, h != 0, "%s received a null frame", b)
	b.Counters.Generated.Inc()
	b.slotLocker.Do(ctx, func() {
		if b.closed.Load() {
			b.API.ReleaseFrame(h)
			return
		}
		for {
			select {
			case b.result <- h:
				return
			default:
			}
			select {
			case stale := <-b.result:
				b.dropStale(ctx, stale)
			default:
			}
		}
	})
}

func (b *Block) dropStale(ctx context.Context, stale native.FrameHandle) {
	b.Counters.Dropped.Inc()
	logger.Warnf(ctx, "%s: a result was not retrieved before the next one arrived; dropping it", b)
	if b.config.OnDrop == nil {
		b.API.ReleaseFrame(stale)
		return
	}
	f, err := frame.New(ctx, b.API, stale)
	if err != nil {
		logger.Errorf(ctx, "unable to wrap the dropped frame: %v", err)
		return
	}
	b.config.OnDrop(ctx, f)
}

func (b *Block) drain() {
	b.slotLocker.Do(xsync.WithNoLogging(b.ctx, true), func() {
		b.closed.Store(true)
		for {
			select {
			case h := <-b.result:
				b.API.ReleaseFrame(h)
			default:
				return
			}
		}
	})
}

// Process submits in and returns the frame the block produced from it.
// The caller keeps ownership of in.
func (b *Block) Process(ctx context.Context, in frame.Abstract) (frame.Abstract, error) {
	return xsync.DoA2R2(ctx, &b.processLocker, b.process, ctx, in)
}

func (b *Block) process(ctx context.Context, in frame.Abstract) (_ret frame.Abstract, _err error) {
	logger.Tracef(ctx, "Process[%s](%s)", b, in)
	defer func() { logger.Tracef(ctx, "/Process[%s](%s): %v %v", b, in, _ret, _err) }()
	if err := b.Submit(ctx, in); err != nil {
		return nil, err
	}
	return b.Retrieve(ctx)
}

// Submit hands a new reference to in to the native block without
// waiting for the result; pair it with Retrieve.
func (b *Block) Submit(ctx context.Context, in frame.Abstract) error {
	bh := b.GetHandle()
	if bh == 0 {
		return types.ErrClosed{}
	}
	if in == nil || in.IsReleased() {
		return types.ErrReleased{}
	}
	fh := in.GetHandle()
	if nerr := b.API.FrameAddRef(fh); nerr != nil {
		return internal.ErrorFrom(b.API, nerr)
	}
	b.Counters.Submitted.Inc()
	if nerr := b.API.ProcessFrame(bh, fh); nerr != nil {
		b.Counters.Failed.Inc()
		return fmt.Errorf("unable to process %s with %s: %w", in, b, internal.ErrorFrom(b.API, nerr))
	}
	return nil
}

// Retrieve takes the published result out of the slot. If there is none
// (after OptionResultTimeout, if set) it returns
// types.ErrOutOfFrameResources.
func (b *Block) Retrieve(ctx context.Context) (frame.Abstract, error) {
	if b.closed.Load() {
		return nil, types.ErrClosed{}
	}
	var (
		h  native.FrameHandle
		ok bool
	)
	if b.config.ResultTimeout <= 0 {
		select {
		case h = <-b.result:
			ok = true
		default:
		}
	} else {
		timer := time.NewTimer(b.config.ResultTimeout)
		defer timer.Stop()
		select {
		case h = <-b.result:
			ok = true
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		b.Counters.Missed.Inc()
		return nil, types.ErrOutOfFrameResources{Block: b.config.Name}
	}

	f, err := frame.New(ctx, b.API, h)
	if err != nil {
		return nil, err
	}
	b.Counters.Retrieved.Inc()
	if size, err := f.DataSize(ctx); err == nil {
		b.Counters.DataBytes.Add(uint64(size))
	}
	return f, nil
}

func (b *Block) Close(ctx context.Context) (_err error) {
	ctx = xcontext.DetachDone(ctx)
	logger.Debugf(ctx, "Close[%s]", b)
	defer func() { logger.Debugf(ctx, "/Close[%s]: %v", b, _err) }()
	var err error
	b.closeOnce.Do(func() {
		err = b.closer.Close()
	})
	return err
}
