// Package native describes the boundary between rsframe and the native
// frame runtime: opaque ref-counted handles, the capability tags used for
// type dispatch, and the primitives every wrapper is built on.
//
// Any fallible primitive returns a *Error as its last result. The caller
// owns that object and must hand it back through API.FreeError once it
// has been converted.
package native

import (
	"time"
)

// FrameHandle references native frame memory. The runtime counts
// references; the zero value is the null sentinel.
type FrameHandle uintptr

// QueueHandle references a native bounded frame queue.
type QueueHandle uintptr

// BlockHandle references a native processing block.
type BlockHandle uintptr

// SourceHandle is the allocation/publish token handed to a processing
// callback together with the frame to process.
type SourceHandle uintptr

// ProcessorFunc is the body of a processing block built from a function.
// The callee receives ownership of one reference to in.
type ProcessorFunc func(in FrameHandle, src SourceHandle)

// FrameCallback receives every frame a started block publishes.
// The callee receives ownership of one reference to the frame.
type FrameCallback func(f FrameHandle)

type API interface {
	FrameAddRef(f FrameHandle) *Error
	ReleaseFrame(f FrameHandle)

	IsFrameExtendableTo(f FrameHandle, ext Extension) (bool, *Error)

	GetFrameData(f FrameHandle) ([]byte, *Error)
	GetFrameDataSize(f FrameHandle) (int, *Error)
	GetFrameNumber(f FrameHandle) (uint64, *Error)
	GetFrameTimestamp(f FrameHandle) (float64, *Error)
	GetFrameTimestampDomain(f FrameHandle) (TimestampDomain, *Error)
	GetFrameMetadata(f FrameHandle, md FrameMetadata) (int64, *Error)
	SupportsFrameMetadata(f FrameHandle, md FrameMetadata) (bool, *Error)
	GetFrameStreamProfile(f FrameHandle) (StreamProfile, *Error)

	GetFrameWidth(f FrameHandle) (int, *Error)
	GetFrameHeight(f FrameHandle) (int, *Error)
	GetFrameStrideInBytes(f FrameHandle) (int, *Error)
	GetFrameBitsPerPixel(f FrameHandle) (int, *Error)
	DepthFrameGetDistance(f FrameHandle, x, y int) (float32, *Error)
	DepthFrameGetUnits(f FrameHandle) (float32, *Error)
	DepthStereoFrameGetBaseline(f FrameHandle) (float32, *Error)
	PoseFrameGetPoseData(f FrameHandle) (Pose, *Error)
	GetFramePointsCount(f FrameHandle) (int, *Error)
	GetFrameVertices(f FrameHandle) ([]Vertex, *Error)
	GetFrameTextureCoordinates(f FrameHandle) ([]TextureCoordinate, *Error)

	EmbeddedFramesCount(composite FrameHandle) (int, *Error)
	// ExtractFrame returns a new reference to the child at index.
	ExtractFrame(composite FrameHandle, index int) (FrameHandle, *Error)

	CreateFrameQueue(capacity int) (QueueHandle, *Error)
	// DeleteFrameQueue releases every frame still queued.
	DeleteFrameQueue(q QueueHandle)
	// EnqueueFrame takes ownership of one reference to f.
	EnqueueFrame(f FrameHandle, q QueueHandle)
	PollForFrame(q QueueHandle) (FrameHandle, bool, *Error)
	TryWaitForFrame(q QueueHandle, timeout time.Duration) (FrameHandle, bool, *Error)

	CreateProcessingBlock(spec BlockSpec) (BlockHandle, *Error)
	CreateProcessingBlockFunc(fn ProcessorFunc) (BlockHandle, *Error)
	DeleteProcessingBlock(b BlockHandle)
	StartProcessingQueue(b BlockHandle, q QueueHandle) *Error
	StartProcessingFunc(b BlockHandle, cb FrameCallback) *Error
	// ProcessFrame takes ownership of one reference to f, also when it
	// fails.
	ProcessFrame(b BlockHandle, f FrameHandle) *Error

	// AllocateSyntheticVideoFrame returns a null handle and no error
	// when the runtime ran out of frame resources.
	AllocateSyntheticVideoFrame(
		src SourceHandle,
		profile StreamProfile,
		original FrameHandle,
		bitsPerPixel, width, height, stride int,
		ext Extension,
	) (FrameHandle, *Error)
	// AllocateCompositeFrame takes ownership of one reference per input
	// on success; on failure the references stay with the caller.
	AllocateCompositeFrame(src SourceHandle, frames []FrameHandle) (FrameHandle, *Error)
	// SyntheticFrameReady takes ownership of one reference to f.
	SyntheticFrameReady(src SourceHandle, f FrameHandle) *Error

	SupportsOption(b BlockHandle, opt Option) (bool, *Error)
	GetOption(b BlockHandle, opt Option) (float32, *Error)
	SetOption(b BlockHandle, opt Option, value float32) *Error
	GetOptionRange(b BlockHandle, opt Option) (OptionRange, *Error)
	IsOptionReadOnly(b BlockHandle, opt Option) (bool, *Error)
	GetOptionDescription(b BlockHandle, opt Option) (string, *Error)
	GetOptionValueDescription(b BlockHandle, opt Option, value float32) (string, *Error)
	GetOptionsList(b BlockHandle) ([]Option, *Error)
	ProcessingBlockRegisterSimpleOption(b BlockHandle, opt Option, r OptionRange) *Error

	FreeError(err *Error)
}
