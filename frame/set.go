package frame

import (
	"context"
	"fmt"
	"iter"

	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/releaser"
	"github.com/xaionaro-go/rsframe/types"
	"github.com/xaionaro-go/typing"
)

// Set is a composite frame bundling time-aligned child frames.
//
// Children are extracted lazily: every access returns a fresh reference
// owned by the caller. Objects attached via AddDisposable are closed
// together with the set.
type Set struct {
	Commons
	count       int
	disposables releaser.Releaser
}

func newSet(
	ctx context.Context,
	api native.API,
	h native.FrameHandle,
) (*Set, error) {
	count, nerr := api.EmbeddedFramesCount(h)
	if nerr != nil {
		err := internal.ErrorFrom(api, nerr)
		api.ReleaseFrame(h)
		return nil, fmt.Errorf("unable to get the amount of embedded frames: %w", err)
	}
	s := SetPool.Get(ctx)
	s.bind(api, h)
	s.count = count
	return s, nil
}

// FromFrame wraps the composite frame f into a Set holding its own
// reference; f stays owned by the caller.
func FromFrame(ctx context.Context, f Abstract) (*Set, error) {
	if f == nil || f.IsReleased() {
		return nil, types.ErrReleased{}
	}
	isComposite, err := f.IsComposite(ctx)
	if err != nil {
		return nil, err
	}
	if !isComposite {
		return nil, types.ErrNotComposite{}
	}
	api := f.GetAPI()
	h := f.GetHandle()
	if nerr := api.FrameAddRef(h); nerr != nil {
		return nil, internal.ErrorFrom(api, nerr)
	}
	return newSet(ctx, api, h)
}

func (s *Set) reset() {
	s.Commons.reset()
	s.count = 0
}

func (s *Set) Kind() Kind { return KindSet }

func (s *Set) String() string {
	if s.IsReleased() {
		return s.describe(KindSet)
	}
	return fmt.Sprintf("%s[%d]", s.describe(KindSet), s.count)
}

// Release releases the composite handle and then everything attached
// through AddDisposable.
func (s *Set) Release(ctx context.Context) {
	if !s.releaseHandle(ctx) {
		return
	}
	if err := s.disposables.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to release the objects attached to the frameset: %v", err)
	}
	SetPool.Put(ctx, s)
}

func (s *Set) Close(ctx context.Context) error {
	if !s.releaseHandle(ctx) {
		return nil
	}
	err := s.disposables.Close(ctx)
	SetPool.Put(ctx, s)
	return err
}

func (s *Set) Clone(ctx context.Context) (Abstract, error) {
	return s.clone(ctx, KindSet)
}

// AsFrame returns the composite as a Plain frame with its own reference.
func (s *Set) AsFrame(ctx context.Context) (*Plain, error) {
	h, err := s.addRef(ctx)
	if err != nil {
		return nil, err
	}
	f := PlainPool.Get(ctx)
	f.bind(s.API, h)
	return f, nil
}

// Count is the amount of children; cached when the set is constructed.
func (s *Set) Count() int {
	return s.count
}

// AddDisposable ties c to the lifetime of the set.
func (s *Set) AddDisposable(ctx context.Context, c types.Closer) {
	s.disposables.Add(ctx, c)
}

// At returns the child with the given index.
func (s *Set) At(ctx context.Context, index int) (Abstract, error) {
	h := s.GetHandle()
	if h == 0 {
		return nil, types.ErrReleased{}
	}
	if index < 0 || index >= s.count {
		return nil, types.ErrIndexOutOfRange{Index: index, Count: s.count}
	}
	child, nerr := s.API.ExtractFrame(h, index)
	if nerr != nil {
		return nil, internal.ErrorFrom(s.API, nerr)
	}
	return New(ctx, s.API, child)
}

// All iterates over the children in index order; every yielded frame is
// owned by the consumer. Iteration stops after the first error.
func (s *Set) All(ctx context.Context) iter.Seq2[Abstract, error] {
	return func(yield func(Abstract, error) bool) {
		for idx := 0; idx < s.count; idx++ {
			f, err := s.At(ctx, idx)
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// ForEach calls fn for every child and releases the child right after.
func (s *Set) ForEach(
	ctx context.Context,
	fn func(ctx context.Context, f Abstract) error,
) error {
	for idx := 0; idx < s.count; idx++ {
		f, err := s.At(ctx, idx)
		if err != nil {
			return fmt.Errorf("unable to get frame #%d: %w", idx, err)
		}
		err = fn(ctx, f)
		f.Release(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// Match selects children by their stream profile.
type Match struct {
	// Stream is the stream type to match; native.StreamAny matches any.
	Stream native.Stream
	Format typing.Optional[native.Format]
	Index  typing.Optional[int]
}

func (m Match) matches(p native.StreamProfile) bool {
	if m.Stream != native.StreamAny && p.Stream != m.Stream {
		return false
	}
	if m.Format.IsSet() && m.Format.Get() != native.FormatAny && p.Format != m.Format.Get() {
		return false
	}
	if m.Index.IsSet() && p.Index != m.Index.Get() {
		return false
	}
	return true
}

// Find returns the first child matching m, or nil if there is none.
// Children inspected on the way are released.
func (s *Set) Find(ctx context.Context, m Match) (_ret Abstract, _err error) {
	skipped := releaser.New()
	defer func() {
		if err := skipped.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the skipped frames: %v", err)
		}
	}()

	for idx := 0; idx < s.count; idx++ {
		f, err := s.At(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("unable to get frame #%d: %w", idx, err)
		}
		profile, err := f.Profile(ctx)
		if err != nil {
			f.Release(ctx)
			return nil, fmt.Errorf("unable to get the profile of frame #%d: %w", idx, err)
		}
		if m.matches(profile) {
			return f, nil
		}
		skipped.Add(ctx, f)
	}
	return nil, nil
}

// FirstOrDefault returns the first child of the stream (and of the
// format, if set), or nil if there is none.
func (s *Set) FirstOrDefault(
	ctx context.Context,
	stream native.Stream,
	format typing.Optional[native.Format],
) (Abstract, error) {
	return s.Find(ctx, Match{Stream: stream, Format: format})
}

// Get returns the child of the stream with the given stream index, or
// nil if there is none.
func (s *Set) Get(
	ctx context.Context,
	stream native.Stream,
	index int,
) (Abstract, error) {
	return s.Find(ctx, Match{Stream: stream, Index: typing.Opt(index)})
}

// DepthFrame returns the first Z16 depth child. The result is owned by
// the set and is released together with it.
func (s *Set) DepthFrame(ctx context.Context) (DepthFrame, error) {
	return findOwned[DepthFrame](ctx, s, Match{
		Stream: native.StreamDepth,
		Format: typing.Opt(native.FormatZ16),
	})
}

// ColorFrame returns the color child, falling back to an RGB8 infrared
// child, as some devices stream color through the infrared sensor. The
// result is owned by the set.
func (s *Set) ColorFrame(ctx context.Context) (VideoFrame, error) {
	f, err := findOwned[VideoFrame](ctx, s, Match{Stream: native.StreamColor})
	if f != nil || err != nil {
		return f, err
	}
	return findOwned[VideoFrame](ctx, s, Match{
		Stream: native.StreamInfrared,
		Format: typing.Opt(native.FormatRGB8),
	})
}

// InfraredFrame returns the infrared child with the given stream index;
// index 0 matches any infrared stream. The result is owned by the set.
func (s *Set) InfraredFrame(ctx context.Context, index int) (VideoFrame, error) {
	m := Match{Stream: native.StreamInfrared}
	if index != 0 {
		m.Index = typing.Opt(index)
	}
	return findOwned[VideoFrame](ctx, s, m)
}

func findOwned[T Abstract](ctx context.Context, s *Set, m Match) (T, error) {
	var zero T
	f, err := s.Find(ctx, m)
	if err != nil || f == nil {
		return zero, err
	}
	v, err := As[T](ctx, f)
	if err != nil {
		return zero, err
	}
	s.AddDisposable(ctx, v)
	return v, nil
}

// DisposeWith ties v to the lifetime of s and returns v.
func DisposeWith[T types.Closer](ctx context.Context, v T, s *Set) T {
	s.AddDisposable(ctx, v)
	return v
}
