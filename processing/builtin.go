package processing

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/xsync"
)

func processAs[T frame.Abstract](ctx context.Context, b *Block, in frame.Abstract) (T, error) {
	out, err := b.Process(ctx, in)
	if err != nil {
		var zero T
		return zero, err
	}
	return frame.As[T](ctx, out)
}

// Colorizer turns depth frames into RGB8 images.
type Colorizer struct {
	*Block
}

func NewColorizer(ctx context.Context, api native.API, opts ...Option) (*Colorizer, error) {
	b, err := NewBlock(ctx, api, native.BlockSpec{Kind: native.BlockKindColorizer}, opts...)
	if err != nil {
		return nil, err
	}
	return &Colorizer{Block: b}, nil
}

func (c *Colorizer) Colorize(ctx context.Context, depth frame.VideoFrame) (frame.VideoFrame, error) {
	return processAs[frame.VideoFrame](ctx, c.Block, depth)
}

// Align maps the frames of a set onto the viewport of one of its streams.
type Align struct {
	*Block
	AlignTo native.Stream
}

func NewAlign(ctx context.Context, api native.API, alignTo native.Stream, opts ...Option) (*Align, error) {
	b, err := NewBlock(ctx, api, native.BlockSpec{Kind: native.BlockKindAlign, AlignTo: alignTo}, opts...)
	if err != nil {
		return nil, err
	}
	return &Align{Block: b, AlignTo: alignTo}, nil
}

// Process returns a new set whose frames are aligned to AlignTo. The
// caller keeps ownership of set.
func (a *Align) Process(ctx context.Context, set *frame.Set) (*frame.Set, error) {
	return processAs[*frame.Set](ctx, a.Block, set)
}

// Filter is a depth post-processing block: one video frame in, one out.
type Filter struct {
	*Block
	Kind native.BlockKind
}

func newFilter(ctx context.Context, api native.API, spec native.BlockSpec, opts ...Option) (*Filter, error) {
	b, err := NewBlock(ctx, api, spec, opts...)
	if err != nil {
		return nil, err
	}
	return &Filter{Block: b, Kind: spec.Kind}, nil
}

func NewDecimationFilter(ctx context.Context, api native.API, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{Kind: native.BlockKindDecimationFilter}, opts...)
}

func NewSpatialFilter(ctx context.Context, api native.API, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{Kind: native.BlockKindSpatialFilter}, opts...)
}

func NewTemporalFilter(ctx context.Context, api native.API, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{Kind: native.BlockKindTemporalFilter}, opts...)
}

func NewHoleFillingFilter(ctx context.Context, api native.API, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{Kind: native.BlockKindHoleFillingFilter}, opts...)
}

func NewThresholdFilter(ctx context.Context, api native.API, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{Kind: native.BlockKindThresholdFilter}, opts...)
}

// NewDisparityTransform converts depth to disparity, or back if
// toDisparity is false.
func NewDisparityTransform(ctx context.Context, api native.API, toDisparity bool, opts ...Option) (*Filter, error) {
	return newFilter(ctx, api, native.BlockSpec{
		Kind:                 native.BlockKindDisparityTransform,
		TransformToDisparity: toDisparity,
	}, opts...)
}

func (f *Filter) Apply(ctx context.Context, in frame.VideoFrame) (frame.VideoFrame, error) {
	return processAs[frame.VideoFrame](ctx, f.Block, in)
}

// PointCloud deprojects depth frames into vertices.
type PointCloud struct {
	*Block
}

func NewPointCloud(ctx context.Context, api native.API, opts ...Option) (*PointCloud, error) {
	b, err := NewBlock(ctx, api, native.BlockSpec{Kind: native.BlockKindPointCloud}, opts...)
	if err != nil {
		return nil, err
	}
	return &PointCloud{Block: b}, nil
}

func (pc *PointCloud) Calculate(ctx context.Context, depth frame.Abstract) (*frame.Points, error) {
	return processAs[*frame.Points](ctx, pc.Block, depth)
}

// MapTexture makes the following Calculate calls produce texture
// coordinates for the stream of texture.
func (pc *PointCloud) MapTexture(ctx context.Context, texture frame.VideoFrame) error {
	profile, err := texture.Profile(ctx)
	if err != nil {
		return fmt.Errorf("unable to get the profile of the texture: %w", err)
	}
	opts := pc.Options()
	for _, kv := range []struct {
		Option native.Option
		Value  float32
	}{
		{native.OptionStreamFilter, float32(profile.Stream)},
		{native.OptionStreamFormatFilter, float32(profile.Format)},
		{native.OptionStreamIndexFilter, float32(profile.Index)},
	} {
		if err := opts.Set(ctx, kv.Option, kv.Value); err != nil {
			return fmt.Errorf("unable to set %s: %w", kv.Option, err)
		}
	}
	return xsync.DoA2R1(ctx, &pc.processLocker, pc.Submit, ctx, frame.Abstract(texture))
}
