// frame.go defines the interfaces every frame wrapper implements.

// Package frame wraps native ref-counted frame handles.
//
// Every wrapper owns exactly one native reference. Clone takes another
// reference and returns another wrapper; Release gives the reference back
// and returns the wrapper to the pool of its variant, so a released
// wrapper must not be used again.
package frame

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/types"
)

type Abstract interface {
	types.Closer
	fmt.Stringer

	Kind() Kind
	GetAPI() native.API
	GetHandle() native.FrameHandle
	IsReleased() bool

	// Release gives the native reference back. Calling it again is a no-op.
	Release(ctx context.Context)
	Clone(ctx context.Context) (Abstract, error)

	IsExtendableTo(ctx context.Context, ext native.Extension) (bool, error)
	IsComposite(ctx context.Context) (bool, error)
	Data(ctx context.Context) ([]byte, error)
	DataSize(ctx context.Context) (int, error)
	Number(ctx context.Context) (uint64, error)
	Timestamp(ctx context.Context) (float64, error)
	TimestampDomain(ctx context.Context) (native.TimestampDomain, error)
	Metadata(ctx context.Context, md native.FrameMetadata) (int64, error)
	SupportsMetadata(ctx context.Context, md native.FrameMetadata) (bool, error)
	Profile(ctx context.Context) (native.StreamProfile, error)
}

// VideoFrame is implemented by Video and by the variants built on it.
type VideoFrame interface {
	Abstract
	Width(ctx context.Context) (int, error)
	Height(ctx context.Context) (int, error)
	Stride(ctx context.Context) (int, error)
	BitsPerPixel(ctx context.Context) (int, error)
	CopyTo(ctx context.Context, dst []byte) (int, error)
	CopyFrom(ctx context.Context, src []byte) error
}

// DepthFrame is implemented by Depth and Disparity.
type DepthFrame interface {
	VideoFrame
	Distance(ctx context.Context, x, y int) (float32, error)
	Units(ctx context.Context) (float32, error)
}

var (
	_ Abstract   = (*Plain)(nil)
	_ VideoFrame = (*Video)(nil)
	_ DepthFrame = (*Depth)(nil)
	_ DepthFrame = (*Disparity)(nil)
	_ Abstract   = (*Motion)(nil)
	_ Abstract   = (*Pose)(nil)
	_ Abstract   = (*Points)(nil)
	_ Abstract   = (*Set)(nil)
)
