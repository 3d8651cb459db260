package soft

import (
	"fmt"

	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/xsync"
)

type block struct {
	handle  native.BlockHandle
	source  native.SourceHandle
	spec    native.BlockSpec
	kernel  Kernel
	options map[native.Option]*optionState

	processLocker xsync.Mutex

	queue    native.QueueHandle
	callback native.FrameCallback
}

func blockArgs(b native.BlockHandle) string {
	return fmt.Sprintf("block:%#x", uintptr(b))
}

func (r *Runtime) CreateProcessingBlock(spec native.BlockSpec) (native.BlockHandle, *native.Error) {
	if nerr := r.takeInjected("CreateProcessingBlock"); nerr != nil {
		return 0, nerr
	}
	var (
		reg kindRegistration
		ok  bool
	)
	r.do(func() {
		reg, ok = r.kinds[spec.Kind]
	})
	if !ok {
		return 0, newError("CreateProcessingBlock", spec.String(), native.ExceptionTypeNotImplemented, "processing block %s is not supported", spec.Kind)
	}
	return r.addBlock(spec, reg.Factory(spec), reg.Options), nil
}

func (r *Runtime) CreateProcessingBlockFunc(fn native.ProcessorFunc) (native.BlockHandle, *native.Error) {
	if nerr := r.takeInjected("CreateProcessingBlockFunc"); nerr != nil {
		return 0, nerr
	}
	if fn == nil {
		return 0, newError("CreateProcessingBlockFunc", "proc:nil", native.ExceptionTypeInvalidValue, "null pointer passed for argument \"proc\"")
	}
	kernel := KernelFunc(func(kctx KernelContext, in native.FrameHandle) *native.Error {
		fn(in, kctx.Source)
		return nil
	})
	return r.addBlock(native.BlockSpec{}, kernel, nil), nil
}

func (r *Runtime) addBlock(
	spec native.BlockSpec,
	kernel Kernel,
	options []OptionSpec,
) native.BlockHandle {
	b := &block{
		handle:  native.BlockHandle(r.newHandle()),
		source:  native.SourceHandle(r.newHandle()),
		spec:    spec,
		kernel:  kernel,
		options: map[native.Option]*optionState{},
	}
	for _, opt := range options {
		b.options[opt.Option] = newOptionState(opt)
	}
	r.do(func() {
		r.blocks[b.handle] = b
		r.sources[b.source] = b
	})
	logger.Debugf(r.ctx, "created processing block %#x (%s)", uintptr(b.handle), spec)
	return b.handle
}

func (r *Runtime) getBlock(function string, h native.BlockHandle) (*block, *native.Error) {
	if nerr := r.takeInjected(function); nerr != nil {
		return nil, nerr
	}
	var b *block
	r.do(func() {
		b = r.blocks[h]
	})
	if b == nil {
		return nil, newError(function, blockArgs(h), native.ExceptionTypeInvalidValue, "unknown processing block")
	}
	return b, nil
}

// KernelResetter is implemented by kernels that hold frames between
// invocations; Reset is called when the block is deleted.
type KernelResetter interface {
	Reset(r *Runtime)
}

func (r *Runtime) DeleteProcessingBlock(h native.BlockHandle) {
	var b *block
	r.do(func() {
		b = r.blocks[h]
		if b == nil {
			return
		}
		delete(r.blocks, h)
		delete(r.sources, b.source)
	})
	if b == nil {
		return
	}
	if resetter, ok := b.kernel.(KernelResetter); ok {
		b.processLocker.Do(r.lockCtx(), func() {
			resetter.Reset(r)
		})
	}
	logger.Debugf(r.ctx, "deleted processing block %#x", uintptr(h))
}

func (r *Runtime) StartProcessingQueue(h native.BlockHandle, q native.QueueHandle) *native.Error {
	b, nerr := r.getBlock("StartProcessingQueue", h)
	if nerr != nil {
		return nerr
	}
	r.do(func() {
		if _, ok := r.queues[q]; !ok {
			nerr = newError("StartProcessingQueue", blockArgs(h)+", "+queueArgs(q), native.ExceptionTypeInvalidValue, "unknown frame queue")
			return
		}
		b.queue, b.callback = q, nil
	})
	return nerr
}

func (r *Runtime) StartProcessingFunc(h native.BlockHandle, cb native.FrameCallback) *native.Error {
	b, nerr := r.getBlock("StartProcessingFunc", h)
	if nerr != nil {
		return nerr
	}
	if cb == nil {
		return newError("StartProcessingFunc", blockArgs(h)+", on_frame:nil", native.ExceptionTypeInvalidValue, "null pointer passed for argument \"on_frame\"")
	}
	r.do(func() {
		b.queue, b.callback = 0, cb
	})
	return nil
}

// ProcessFrame runs the kernel on the calling goroutine; everything the
// kernel publishes is delivered before ProcessFrame returns.
func (r *Runtime) ProcessFrame(h native.BlockHandle, f native.FrameHandle) *native.Error {
	b, nerr := r.getBlock("ProcessFrame", h)
	if nerr != nil {
		r.ReleaseFrame(f)
		return nerr
	}
	if _, nerr := r.lookup("ProcessFrame", f); nerr != nil {
		return nerr
	}
	r.stats.Processed.Inc()
	kctx := KernelContext{
		Runtime: r,
		Block:   b.handle,
		Source:  b.source,
		Spec:    b.spec,
	}
	return xsync.DoR1(r.lockCtx(), &b.processLocker, func() *native.Error {
		return b.kernel.Process(kctx, f)
	})
}

func (r *Runtime) SyntheticFrameReady(src native.SourceHandle, f native.FrameHandle) *native.Error {
	if nerr := r.takeInjected("SyntheticFrameReady"); nerr != nil {
		r.ReleaseFrame(f)
		return nerr
	}
	var (
		callback native.FrameCallback
		nerr     *native.Error
	)
	r.do(func() {
		if _, nerr = r.lookupLocked("SyntheticFrameReady", f); nerr != nil {
			return
		}
		b, ok := r.sources[src]
		switch {
		case !ok:
			nerr = newError("SyntheticFrameReady", fmt.Sprintf("source:%#x, %s", uintptr(src), frameArgs(f)), native.ExceptionTypeInvalidValue, "unknown frame source")
			r.releaseLocked(f)
		case b.queue != 0:
			r.enqueueLocked(f, b.queue)
		case b.callback != nil:
			callback = b.callback
		default:
			logger.Tracef(r.ctx, "block %#x is not started; dropping frame %#x", uintptr(b.handle), uintptr(f))
			r.releaseLocked(f)
		}
	})
	if callback != nil {
		callback(f)
	}
	return nerr
}

func (r *Runtime) getSource(function string, src native.SourceHandle) (*block, *native.Error) {
	var b *block
	r.do(func() {
		b = r.sources[src]
	})
	if b == nil {
		return nil, newError(function, fmt.Sprintf("source:%#x", uintptr(src)), native.ExceptionTypeInvalidValue, "unknown frame source")
	}
	return b, nil
}

func (r *Runtime) AllocateSyntheticVideoFrame(
	src native.SourceHandle,
	profile native.StreamProfile,
	original native.FrameHandle,
	bitsPerPixel, width, height, stride int,
	ext native.Extension,
) (native.FrameHandle, *native.Error) {
	const function = "AllocateSyntheticVideoFrame"
	if nerr := r.takeInjected(function); nerr != nil {
		return 0, nerr
	}
	args := fmt.Sprintf("source:%#x, %s, %dbpp, %dx%d, stride:%d, %s", uintptr(src), frameArgs(original), bitsPerPixel, width, height, stride, ext)
	if _, nerr := r.getSource(function, src); nerr != nil {
		return 0, nerr
	}
	var orig *frameRecord
	if original != 0 {
		var nerr *native.Error
		if orig, nerr = r.lookup(function, original); nerr != nil {
			return 0, nerr
		}
	}
	if profile == (native.StreamProfile{}) && orig != nil {
		profile = orig.profile
	}

	var rec *frameRecord
	switch ext {
	case native.ExtensionVideoFrame, native.ExtensionDepthFrame, native.ExtensionDisparityFrame:
		var err error
		rec, err = r.newVideoRecord(profile, bitsPerPixel, width, height, stride)
		if err != nil {
			return 0, newError(function, args, native.ExceptionTypeInvalidValue, "%v", err)
		}
		switch ext {
		case native.ExtensionDepthFrame:
			rec.extensions |= newExtensionSet(native.ExtensionDepthFrame)
		case native.ExtensionDisparityFrame:
			rec.extensions |= newExtensionSet(native.ExtensionDepthFrame, native.ExtensionDisparityFrame)
		}
	case native.ExtensionPoints:
		count := width * height
		profile.Width, profile.Height = width, height
		rec = &frameRecord{
			extensions: newExtensionSet(native.ExtensionPoints),
			profile:    profile,
			vertices:   make([]native.Vertex, count),
			texCoords:  make([]native.TextureCoordinate, count),
		}
	default:
		return 0, newError(function, args, native.ExceptionTypeInvalidValue, "extension %s is not a video frame extension", ext)
	}
	if orig != nil {
		rec.number = orig.number
		rec.timestamp = orig.timestamp
		rec.domain = orig.domain
		rec.metadata = orig.metadata
		if orig.depthUnits != 0 {
			rec.depthUnits = orig.depthUnits
		}
		rec.baseline = orig.baseline
	}
	key := quotaKey{Source: src, Stream: profile.Stream, Index: profile.Index}
	rec.quota = &key

	var h native.FrameHandle
	r.do(func() {
		if !r.reserveQuotaLocked(key) {
			return
		}
		h = r.addFrameLocked(rec)
	})
	if h == 0 {
		logger.Warnf(r.ctx, "out of frame resources: source %#x already has %d frames of %s alive", uintptr(src), r.config.FramesQueueSize, profile)
	}
	return h, nil
}

func (r *Runtime) AllocateCompositeFrame(
	src native.SourceHandle,
	frames []native.FrameHandle,
) (native.FrameHandle, *native.Error) {
	const function = "AllocateCompositeFrame"
	if nerr := r.takeInjected(function); nerr != nil {
		return 0, nerr
	}
	args := fmt.Sprintf("source:%#x, count:%d", uintptr(src), len(frames))
	if src != 0 {
		if _, nerr := r.getSource(function, src); nerr != nil {
			return 0, nerr
		}
	}
	if len(frames) == 0 {
		return 0, newError(function, args, native.ExceptionTypeInvalidValue, "a composite frame needs at least one frame")
	}

	var (
		h    native.FrameHandle
		nerr *native.Error
	)
	r.do(func() {
		var first *frameRecord
		for idx, child := range frames {
			rec, err := r.lookupLocked(function, child)
			if err != nil {
				err.Message = fmt.Sprintf("frame #%d: %s", idx, err.Message)
				nerr = err
				return
			}
			if idx == 0 {
				first = rec
			}
		}
		h = r.addFrameLocked(&frameRecord{
			extensions: newExtensionSet(native.ExtensionCompositeFrame),
			profile:    first.profile,
			number:     first.number,
			timestamp:  first.timestamp,
			domain:     first.domain,
			metadata:   first.metadata,
			children:   append([]native.FrameHandle(nil), frames...),
		})
	})
	if nerr != nil {
		nerr.Args = args
		return 0, nerr
	}
	return h, nil
}
