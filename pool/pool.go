// pool.go implements a lock-guarded LIFO free-list of reusable objects.

// Package pool provides recycling of frame wrappers: the objects released
// last are the ones handed out first.
package pool

import (
	"context"

	"github.com/xaionaro-go/xsync"
)

// ReuseMemory may be switched off to make every Get allocate; useful to
// hunt use-after-release bugs.
var ReuseMemory = true

type Pool[T any] struct {
	Locker    xsync.Mutex
	AllocFunc func(context.Context) *T
	ResetFunc func(*T)
	free      []*T
}

func NewPool[T any](
	allocFunc func(context.Context) *T,
	resetFunc func(*T),
) *Pool[T] {
	return &Pool[T]{
		AllocFunc: allocFunc,
		ResetFunc: resetFunc,
	}
}

// Get returns the most recently Put object, or a new one if there is none.
func (p *Pool[T]) Get(ctx context.Context) *T {
	ctx = xsync.WithNoLogging(ctx, true)
	if item := xsync.DoR1(ctx, &p.Locker, p.pop); item != nil {
		return item
	}
	return p.AllocFunc(ctx)
}

func (p *Pool[T]) pop() *T {
	n := len(p.free)
	if n == 0 {
		return nil
	}
	item := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	return item
}

func (p *Pool[T]) Put(ctx context.Context, items ...*T) {
	if !ReuseMemory {
		return
	}
	for _, item := range items {
		if p.ResetFunc != nil {
			p.ResetFunc(item)
		}
	}
	ctx = xsync.WithNoLogging(ctx, true)
	p.Locker.Do(ctx, func() {
		p.free = append(p.free, items...)
	})
}

// Len returns the amount of objects waiting for reuse.
func (p *Pool[T]) Len(ctx context.Context) int {
	ctx = xsync.WithNoLogging(ctx, true)
	return xsync.DoR1(ctx, &p.Locker, func() int {
		return len(p.free)
	})
}
