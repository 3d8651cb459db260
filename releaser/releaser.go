// Package releaser provides a scope-bound collector of closers: whatever
// was added gets closed in insertion order when the scope ends.
package releaser

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/xsync"
)

type Releaser struct {
	Locker  xsync.Mutex
	closers []types.Closer
}

func New() *Releaser {
	return &Releaser{}
}

// Add appends the closers; nil values are kept and skipped on Close.
func (r *Releaser) Add(ctx context.Context, closers ...types.Closer) {
	r.Locker.Do(xsync.WithNoLogging(ctx, true), func() {
		r.closers = append(r.closers, closers...)
	})
}

func (r *Releaser) Len(ctx context.Context) int {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &r.Locker, func() int {
		return len(r.closers)
	})
}

// Close closes every collected closer front-to-back and empties the
// collection, so the Releaser can be reused.
func (r *Releaser) Close(ctx context.Context) error {
	closers := xsync.DoR1(xsync.WithNoLogging(ctx, true), &r.Locker, func() []types.Closer {
		closers := r.closers
		r.closers = nil
		return closers
	})
	logger.Tracef(ctx, "releasing %d objects", len(closers))

	var errs []error
	for idx, c := range closers {
		if isNil(c) {
			continue
		}
		if err := c.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close #%d (%T): %w", idx, c, err))
		}
	}
	return errors.Join(errs...)
}

// ScopedReturn attaches v to r (if r is not nil) and returns v; lets a
// function hand out a result while still tying it to the caller's scope.
func ScopedReturn[T types.Closer](ctx context.Context, r *Releaser, v T) T {
	if r != nil {
		r.Add(ctx, v)
	}
	return v
}
