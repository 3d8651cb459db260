package pool

import (
	"context"
	"sync"
	"testing"

	assertT "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type item struct {
	ID    int
	Dirty bool
}

func newTestPool() (*Pool[item], *int) {
	allocated := 0
	return NewPool(
		func(context.Context) *item {
			allocated++
			return &item{ID: allocated}
		},
		func(it *item) {
			it.Dirty = false
		},
	), &allocated
}

func TestPoolReusesReleasedInstances(t *testing.T) {
	ctx := context.Background()
	p, allocated := newTestPool()

	var items []*item
	for range 5 {
		it := p.Get(ctx)
		it.Dirty = true
		items = append(items, it)
	}
	require.Equal(t, 5, *allocated)

	p.Put(ctx, items...)
	require.Equal(t, 5, p.Len(ctx))

	seen := map[*item]struct{}{}
	for range 5 {
		it := p.Get(ctx)
		require.False(t, it.Dirty)
		seen[it] = struct{}{}
	}
	require.Equal(t, 5, *allocated, "no new instance must be allocated while the pool is non-empty")
	for _, it := range items {
		require.Contains(t, seen, it)
	}
	require.Zero(t, p.Len(ctx))
}

func TestPoolIsLIFO(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool()

	a, b := p.Get(ctx), p.Get(ctx)
	p.Put(ctx, a)
	p.Put(ctx, b)
	require.Same(t, b, p.Get(ctx))
	require.Same(t, a, p.Get(ctx))
}

func TestPoolReuseMemoryDisabled(t *testing.T) {
	ctx := context.Background()
	p, allocated := newTestPool()

	ReuseMemory = false
	defer func() { ReuseMemory = true }()

	a := p.Get(ctx)
	p.Put(ctx, a)
	require.Zero(t, p.Len(ctx))
	require.NotSame(t, a, p.Get(ctx))
	require.Equal(t, 2, *allocated)
}

func TestPoolConcurrentGetPut(t *testing.T) {
	ctx := context.Background()
	var allocated atomic.Int64
	p := NewPool(
		func(context.Context) *item {
			return &item{ID: int(allocated.Inc())}
		},
		func(it *item) {
			it.Dirty = false
		},
	)

	const workers = 8
	var (
		wg    sync.WaitGroup
		inUse sync.Map
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				it := p.Get(ctx)
				_, loaded := inUse.LoadOrStore(it, struct{}{})
				assertT.False(t, loaded, "an instance was handed out twice")
				assertT.False(t, it.Dirty)
				it.Dirty = true
				inUse.Delete(it)
				p.Put(ctx, it)
			}
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, allocated.Load(), int64(workers))
	require.EqualValues(t, allocated.Load(), p.Len(ctx))
}
