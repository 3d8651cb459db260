package processing

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/internal"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
)

// FrameSource is handed to a ProcessFunc to allocate output frames and
// to publish them. It is valid only during that call.
type FrameSource struct {
	API    native.API
	Handle native.SourceHandle
}

// AllocateVideoFrame allocates a frame shaped like original (which may be
// nil) with the given geometry and capability tag.
func (s *FrameSource) AllocateVideoFrame(
	ctx context.Context,
	profile native.StreamProfile,
	original frame.Abstract,
	bitsPerPixel, width, height, stride int,
	ext native.Extension,
) (frame.VideoFrame, error) {
	return AllocateVideoFrameAs[frame.VideoFrame](ctx, s, profile, original, bitsPerPixel, width, height, stride, ext)
}

// AllocateVideoFrameAs is AllocateVideoFrame returning a specific variant,
// e.g. *frame.Points for native.ExtensionPoints.
func AllocateVideoFrameAs[T frame.Abstract](
	ctx context.Context,
	s *FrameSource,
	profile native.StreamProfile,
	original frame.Abstract,
	bitsPerPixel, width, height, stride int,
	ext native.Extension,
) (T, error) {
	f, err := s.allocate(ctx, profile, original, bitsPerPixel, width, height, stride, ext)
	if err != nil {
		var zero T
		return zero, err
	}
	return frame.As[T](ctx, f)
}

func (s *FrameSource) allocate(
	ctx context.Context,
	profile native.StreamProfile,
	original frame.Abstract,
	bitsPerPixel, width, height, stride int,
	ext native.Extension,
) (frame.Abstract, error) {
	var origHandle native.FrameHandle
	if original != nil {
		if original.IsReleased() {
			return nil, types.ErrReleased{}
		}
		origHandle = original.GetHandle()
	}
	h, nerr := s.API.AllocateSyntheticVideoFrame(s.Handle, profile, origHandle, bitsPerPixel, width, height, stride, ext)
	if nerr != nil {
		return nil, internal.ErrorFrom(s.API, nerr)
	}
	if h == 0 {
		return nil, types.ErrAllocationFailed{What: fmt.Sprintf("a %dx%d %s frame", width, height, ext)}
	}
	return frame.New(ctx, s.API, h)
}

// AllocateCompositeFrame bundles the frames into a new Set. The frames
// stay owned by the caller: the set holds references of its own.
func (s *FrameSource) AllocateCompositeFrame(
	ctx context.Context,
	frames ...frame.Abstract,
) (_ret *frame.Set, _err error) {
	logger.Tracef(ctx, "AllocateCompositeFrame(%d frames)", len(frames))
	defer func() { logger.Tracef(ctx, "/AllocateCompositeFrame(%d frames): %v %v", len(frames), _ret, _err) }()

	handles := make([]native.FrameHandle, 0, len(frames))
	defer func() {
		if _err == nil {
			return
		}
		for _, h := range handles {
			s.API.ReleaseFrame(h)
		}
	}()
	for idx, f := range frames {
		if f == nil || f.IsReleased() {
			return nil, fmt.Errorf("frame #%d: %w", idx, types.ErrReleased{})
		}
		h := f.GetHandle()
		if nerr := s.API.FrameAddRef(h); nerr != nil {
			return nil, fmt.Errorf("frame #%d: %w", idx, internal.ErrorFrom(s.API, nerr))
		}
		handles = append(handles, h)
	}

	h, nerr := s.API.AllocateCompositeFrame(s.Handle, handles)
	if nerr != nil {
		return nil, fmt.Errorf("unable to allocate a composite frame: %w", internal.ErrorFrom(s.API, nerr))
	}
	if h == 0 {
		return nil, types.ErrAllocationFailed{What: "a composite frame"}
	}
	handles = nil
	return frame.NewAs[*frame.Set](ctx, s.API, h)
}

// FrameReady publishes a new reference to f; the caller keeps its own.
func (s *FrameSource) FrameReady(ctx context.Context, f frame.Abstract) error {
	if f == nil || f.IsReleased() {
		return types.ErrReleased{}
	}
	h := f.GetHandle()
	if nerr := s.API.FrameAddRef(h); nerr != nil {
		return internal.ErrorFrom(s.API, nerr)
	}
	if nerr := s.API.SyntheticFrameReady(s.Handle, h); nerr != nil {
		return internal.ErrorFrom(s.API, nerr)
	}
	return nil
}

// FramesReady publishes the set and releases it.
func (s *FrameSource) FramesReady(ctx context.Context, set *frame.Set) error {
	defer set.Release(ctx)
	return s.FrameReady(ctx, set)
}
