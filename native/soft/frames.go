package soft

import (
	"fmt"

	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
)

type extensionSet uint32

func newExtensionSet(exts ...native.Extension) extensionSet {
	var s extensionSet
	for _, ext := range exts {
		s |= 1 << uint(ext)
	}
	return s
}

func (s extensionSet) Has(ext native.Extension) bool {
	return s&(1<<uint(ext)) != 0
}

type quotaKey struct {
	Source native.SourceHandle
	Stream native.Stream
	Index  int
}

type frameRecord struct {
	refs       int64
	extensions extensionSet
	quota      *quotaKey

	profile   native.StreamProfile
	number    uint64
	timestamp float64
	domain    native.TimestampDomain
	metadata  map[native.FrameMetadata]int64
	data      []byte

	width, height, stride, bpp int
	depthUnits                 float32
	baseline                   float32

	pose      native.Pose
	vertices  []native.Vertex
	texCoords []native.TextureCoordinate

	children []native.FrameHandle
}

func frameArgs(h native.FrameHandle) string {
	return fmt.Sprintf("frame:%#x", uintptr(h))
}

// addFrameLocked registers rec with one reference owned by the caller.
func (r *Runtime) addFrameLocked(rec *frameRecord) native.FrameHandle {
	h := native.FrameHandle(r.newHandle())
	rec.refs = 1
	r.frames[h] = rec
	if rec.quota != nil {
		r.published[*rec.quota]++
	}
	r.stats.Allocated.Inc()
	return h
}

// reserveQuotaLocked returns false when the source already has
// FramesQueueSize frames of the stream alive.
func (r *Runtime) reserveQuotaLocked(key quotaKey) bool {
	if r.config.FramesQueueSize == 0 {
		return true
	}
	if r.published[key] >= r.config.FramesQueueSize {
		r.stats.QuotaExceeded.Inc()
		return false
	}
	return true
}

func (r *Runtime) lookupLocked(function string, h native.FrameHandle) (*frameRecord, *native.Error) {
	if h == 0 {
		return nil, newError(function, frameArgs(h), native.ExceptionTypeInvalidValue, "null pointer passed for argument \"frame\"")
	}
	rec, ok := r.frames[h]
	if !ok {
		return nil, newError(function, frameArgs(h), native.ExceptionTypeInvalidValue, "unknown frame handle")
	}
	return rec, nil
}

func (r *Runtime) lookup(function string, h native.FrameHandle) (*frameRecord, *native.Error) {
	if nerr := r.takeInjected(function); nerr != nil {
		return nil, nerr
	}
	var (
		rec  *frameRecord
		nerr *native.Error
	)
	r.do(func() {
		rec, nerr = r.lookupLocked(function, h)
	})
	return rec, nerr
}

func (r *Runtime) FrameAddRef(h native.FrameHandle) *native.Error {
	r.stats.AddRefCalls.Inc()
	if nerr := r.takeInjected("FrameAddRef"); nerr != nil {
		return nerr
	}
	var nerr *native.Error
	r.do(func() {
		var rec *frameRecord
		rec, nerr = r.lookupLocked("FrameAddRef", h)
		if nerr != nil {
			return
		}
		rec.refs++
	})
	return nerr
}

func (r *Runtime) ReleaseFrame(h native.FrameHandle) {
	r.stats.ReleaseCalls.Inc()
	if h == 0 {
		return
	}
	r.do(func() {
		r.releaseLocked(h)
	})
}

func (r *Runtime) releaseLocked(h native.FrameHandle) {
	rec, ok := r.frames[h]
	if !ok {
		logger.Errorf(r.ctx, "release of an unknown frame %#x", uintptr(h))
		return
	}
	rec.refs--
	if rec.refs > 0 {
		return
	}
	delete(r.frames, h)
	r.stats.Freed.Inc()
	if rec.quota != nil {
		r.published[*rec.quota]--
	}
	for _, child := range rec.children {
		r.releaseLocked(child)
	}
}

// RefCount returns the current amount of references to h; 0 if the frame
// is freed.
func (r *Runtime) RefCount(h native.FrameHandle) int64 {
	var refs int64
	r.do(func() {
		if rec, ok := r.frames[h]; ok {
			refs = rec.refs
		}
	})
	return refs
}

func (r *Runtime) IsFrameExtendableTo(h native.FrameHandle, ext native.Extension) (bool, *native.Error) {
	rec, nerr := r.lookup("IsFrameExtendableTo", h)
	if nerr != nil {
		return false, nerr
	}
	return rec.extensions.Has(ext), nil
}

func (r *Runtime) GetFrameData(h native.FrameHandle) ([]byte, *native.Error) {
	rec, nerr := r.lookup("GetFrameData", h)
	if nerr != nil {
		return nil, nerr
	}
	return rec.data, nil
}

func (r *Runtime) GetFrameDataSize(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookup("GetFrameDataSize", h)
	if nerr != nil {
		return 0, nerr
	}
	return len(rec.data), nil
}

func (r *Runtime) GetFrameNumber(h native.FrameHandle) (uint64, *native.Error) {
	rec, nerr := r.lookup("GetFrameNumber", h)
	if nerr != nil {
		return 0, nerr
	}
	return rec.number, nil
}

func (r *Runtime) GetFrameTimestamp(h native.FrameHandle) (float64, *native.Error) {
	rec, nerr := r.lookup("GetFrameTimestamp", h)
	if nerr != nil {
		return 0, nerr
	}
	return rec.timestamp, nil
}

func (r *Runtime) GetFrameTimestampDomain(h native.FrameHandle) (native.TimestampDomain, *native.Error) {
	rec, nerr := r.lookup("GetFrameTimestampDomain", h)
	if nerr != nil {
		return 0, nerr
	}
	return rec.domain, nil
}

func (r *Runtime) GetFrameMetadata(h native.FrameHandle, md native.FrameMetadata) (int64, *native.Error) {
	rec, nerr := r.lookup("GetFrameMetadata", h)
	if nerr != nil {
		return 0, nerr
	}
	v, ok := rec.metadata[md]
	if !ok {
		return 0, newError("GetFrameMetadata", fmt.Sprintf("%s, metadata:%d", frameArgs(h), md), native.ExceptionTypeInvalidValue, "metadata %d is not available for this frame", md)
	}
	return v, nil
}

func (r *Runtime) SupportsFrameMetadata(h native.FrameHandle, md native.FrameMetadata) (bool, *native.Error) {
	rec, nerr := r.lookup("SupportsFrameMetadata", h)
	if nerr != nil {
		return false, nerr
	}
	_, ok := rec.metadata[md]
	return ok, nil
}

func (r *Runtime) GetFrameStreamProfile(h native.FrameHandle) (native.StreamProfile, *native.Error) {
	rec, nerr := r.lookup("GetFrameStreamProfile", h)
	if nerr != nil {
		return native.StreamProfile{}, nerr
	}
	return rec.profile, nil
}

func (r *Runtime) lookupExt(function string, h native.FrameHandle, ext native.Extension) (*frameRecord, *native.Error) {
	rec, nerr := r.lookup(function, h)
	if nerr != nil {
		return nil, nerr
	}
	if !rec.extensions.Has(ext) {
		return nil, newError(function, frameArgs(h), native.ExceptionTypeInvalidValue, "object does not support %q interface", ext)
	}
	return rec, nil
}

func (r *Runtime) GetFrameWidth(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameWidth", h, native.ExtensionVideoFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.width, nil
}

func (r *Runtime) GetFrameHeight(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameHeight", h, native.ExtensionVideoFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.height, nil
}

func (r *Runtime) GetFrameStrideInBytes(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameStrideInBytes", h, native.ExtensionVideoFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.stride, nil
}

func (r *Runtime) GetFrameBitsPerPixel(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameBitsPerPixel", h, native.ExtensionVideoFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.bpp, nil
}

func (r *Runtime) DepthFrameGetDistance(h native.FrameHandle, x, y int) (float32, *native.Error) {
	rec, nerr := r.lookupExt("DepthFrameGetDistance", h, native.ExtensionDepthFrame)
	if nerr != nil {
		return 0, nerr
	}
	if x < 0 || y < 0 || x >= rec.width || y >= rec.height {
		return 0, newError("DepthFrameGetDistance", fmt.Sprintf("%s, x:%d, y:%d", frameArgs(h), x, y), native.ExceptionTypeInvalidValue, "pixel (%d, %d) is outside of %dx%d", x, y, rec.width, rec.height)
	}
	return depthAt(rec, x, y) * rec.depthUnits, nil
}

func depthAt(rec *frameRecord, x, y int) float32 {
	idx := y*rec.stride + x*2
	if idx+1 >= len(rec.data) {
		return 0
	}
	return float32(uint16(rec.data[idx]) | uint16(rec.data[idx+1])<<8)
}

func (r *Runtime) DepthFrameGetUnits(h native.FrameHandle) (float32, *native.Error) {
	rec, nerr := r.lookupExt("DepthFrameGetUnits", h, native.ExtensionDepthFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.depthUnits, nil
}

func (r *Runtime) DepthStereoFrameGetBaseline(h native.FrameHandle) (float32, *native.Error) {
	rec, nerr := r.lookupExt("DepthStereoFrameGetBaseline", h, native.ExtensionDisparityFrame)
	if nerr != nil {
		return 0, nerr
	}
	return rec.baseline, nil
}

func (r *Runtime) PoseFrameGetPoseData(h native.FrameHandle) (native.Pose, *native.Error) {
	rec, nerr := r.lookupExt("PoseFrameGetPoseData", h, native.ExtensionPoseFrame)
	if nerr != nil {
		return native.Pose{}, nerr
	}
	return rec.pose, nil
}

func (r *Runtime) GetFramePointsCount(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("GetFramePointsCount", h, native.ExtensionPoints)
	if nerr != nil {
		return 0, nerr
	}
	return len(rec.vertices), nil
}

func (r *Runtime) GetFrameVertices(h native.FrameHandle) ([]native.Vertex, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameVertices", h, native.ExtensionPoints)
	if nerr != nil {
		return nil, nerr
	}
	return rec.vertices, nil
}

func (r *Runtime) GetFrameTextureCoordinates(h native.FrameHandle) ([]native.TextureCoordinate, *native.Error) {
	rec, nerr := r.lookupExt("GetFrameTextureCoordinates", h, native.ExtensionPoints)
	if nerr != nil {
		return nil, nerr
	}
	return rec.texCoords, nil
}

func (r *Runtime) EmbeddedFramesCount(h native.FrameHandle) (int, *native.Error) {
	rec, nerr := r.lookupExt("EmbeddedFramesCount", h, native.ExtensionCompositeFrame)
	if nerr != nil {
		return 0, nerr
	}
	return len(rec.children), nil
}

func (r *Runtime) ExtractFrame(h native.FrameHandle, index int) (native.FrameHandle, *native.Error) {
	if nerr := r.takeInjected("ExtractFrame"); nerr != nil {
		return 0, nerr
	}
	var (
		child native.FrameHandle
		nerr  *native.Error
	)
	r.do(func() {
		var rec *frameRecord
		rec, nerr = r.lookupLocked("ExtractFrame", h)
		if nerr != nil {
			return
		}
		if !rec.extensions.Has(native.ExtensionCompositeFrame) {
			nerr = newError("ExtractFrame", frameArgs(h), native.ExceptionTypeInvalidValue, "object does not support %q interface", native.ExtensionCompositeFrame)
			return
		}
		if index < 0 || index >= len(rec.children) {
			nerr = newError("ExtractFrame", fmt.Sprintf("%s, index:%d", frameArgs(h), index), native.ExceptionTypeInvalidValue, "Requested index is out of range!")
			return
		}
		child = rec.children[index]
		r.frames[child].refs++
	})
	return child, nerr
}
