// runtime.go implements the bookkeeping shared by the whole runtime.

// Package soft is a pure-Go implementation of native.API.
//
// It keeps a ref-counted archive of frames, bounded frame queues and
// processing blocks whose kernels run synchronously on the goroutine that
// submitted the frame. Besides serving as a software camera backend it
// counts every reference operation, which makes it the fake native layer
// of the rsframe tests.
package soft

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Runtime struct {
	ctx    context.Context
	config config
	clock  clock.Clock

	lastHandle atomic.Uint64
	stats      counters

	locker    xsync.Mutex
	frames    map[native.FrameHandle]*frameRecord
	queues    map[native.QueueHandle]*frameQueue
	blocks    map[native.BlockHandle]*block
	sources   map[native.SourceHandle]*block
	published map[quotaKey]uint
	kinds     map[native.BlockKind]kindRegistration
	injected  map[string][]*native.Error
}

var _ native.API = (*Runtime)(nil)

func New(
	ctx context.Context,
	opts ...Option,
) *Runtime {
	cfg := Options(opts).config()
	r := &Runtime{
		ctx:       ctx,
		config:    cfg,
		clock:     cfg.Clock,
		frames:    map[native.FrameHandle]*frameRecord{},
		queues:    map[native.QueueHandle]*frameQueue{},
		blocks:    map[native.BlockHandle]*block{},
		sources:   map[native.SourceHandle]*block{},
		published: map[quotaKey]uint{},
		kinds:     map[native.BlockKind]kindRegistration{},
		injected:  map[string][]*native.Error{},
	}
	r.registerBuiltinKinds()
	logger.Debugf(ctx, "software runtime initialized: frames_queue_size=%d", cfg.FramesQueueSize)
	return r
}

func (r *Runtime) lockCtx() context.Context {
	return xsync.WithNoLogging(r.ctx, true)
}

func (r *Runtime) do(fn func()) {
	r.locker.Do(r.lockCtx(), fn)
}

func (r *Runtime) newHandle() uintptr {
	return uintptr(r.lastHandle.Inc())
}

func (r *Runtime) Clock() clock.Clock {
	return r.clock
}

func newError(
	function string,
	args string,
	typ native.ExceptionType,
	format string,
	a ...any,
) *native.Error {
	return &native.Error{
		Message:  fmt.Sprintf(format, a...),
		Function: function,
		Args:     args,
		Type:     typ,
	}
}

// FailNext makes the next call of the named API method (e.g.
// "AllocateCompositeFrame") fail with err. Calls queue up.
func (r *Runtime) FailNext(function string, err *native.Error) {
	if err.Function == "" {
		err.Function = function
	}
	r.do(func() {
		r.injected[function] = append(r.injected[function], err)
	})
}

func (r *Runtime) takeInjected(function string) *native.Error {
	return xsync.DoR1(r.lockCtx(), &r.locker, func() *native.Error {
		return r.takeInjectedLocked(function)
	})
}

func (r *Runtime) takeInjectedLocked(function string) *native.Error {
	errs := r.injected[function]
	if len(errs) == 0 {
		return nil
	}
	r.injected[function] = errs[1:]
	return errs[0]
}

func (r *Runtime) FreeError(err *native.Error) {
	if err == nil {
		return
	}
	r.stats.FreedErrors.Inc()
}
