package soft

import (
	"github.com/xaionaro-go/rsframe/native"
)

// KernelContext is what a kernel gets to do its job: the runtime to
// allocate and publish frames through, and the block it runs in.
type KernelContext struct {
	Runtime *Runtime
	Block   native.BlockHandle
	Source  native.SourceHandle
	Spec    native.BlockSpec
}

// Option returns the current value of an option of the block, or the
// fallback if the block does not have such option.
func (kctx KernelContext) Option(opt native.Option, fallback float32) float32 {
	v, nerr := kctx.Runtime.GetOption(kctx.Block, opt)
	if nerr != nil {
		kctx.Runtime.FreeError(nerr)
		return fallback
	}
	return v
}

// Publish hands the frame to the block's output; it takes ownership of
// one reference.
func (kctx KernelContext) Publish(h native.FrameHandle) *native.Error {
	return kctx.Runtime.SyntheticFrameReady(kctx.Source, h)
}

// Kernel is the computation of a processing block.
//
// Process gets the ownership of one reference to in and may publish any
// amount of frames, including in itself.
type Kernel interface {
	Process(kctx KernelContext, in native.FrameHandle) *native.Error
}

type KernelFunc func(kctx KernelContext, in native.FrameHandle) *native.Error

func (fn KernelFunc) Process(kctx KernelContext, in native.FrameHandle) *native.Error {
	return fn(kctx, in)
}

// KernelFactory creates the kernel of a new block; it is called once
// per block, so the kernel may keep state.
type KernelFactory func(spec native.BlockSpec) Kernel

// OptionSpec declares an option a block of some kind supports.
type OptionSpec struct {
	Option            native.Option
	Range             native.OptionRange
	ReadOnly          bool
	Description       string
	ValueDescriptions map[float32]string
}

type kindRegistration struct {
	Factory KernelFactory
	Options []OptionSpec
}

// RegisterBlockKind makes CreateProcessingBlock of the kind use the
// kernels made by factory; it replaces any previous registration.
func (r *Runtime) RegisterBlockKind(
	kind native.BlockKind,
	factory KernelFactory,
	options ...OptionSpec,
) {
	r.do(func() {
		r.kinds[kind] = kindRegistration{
			Factory: factory,
			Options: options,
		}
	})
}

// UnregisterBlockKind makes creation of blocks of the kind fail.
func (r *Runtime) UnregisterBlockKind(kind native.BlockKind) {
	r.do(func() {
		delete(r.kinds, kind)
	})
}
