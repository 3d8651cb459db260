package soft

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
)

// ErrQuotaExceeded is returned when the stream already has
// FramesQueueSize frames alive.
type ErrQuotaExceeded struct {
	Profile native.StreamProfile
}

func (e ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("out of frame resources for stream %s", e.Profile)
}

// FrameParams describes a captured frame.
type FrameParams struct {
	Profile   native.StreamProfile
	Number    uint64
	Timestamp float64
	Domain    native.TimestampDomain
	Metadata  map[native.FrameMetadata]int64
}

type VideoFrameParams struct {
	FrameParams

	// Stride defaults to Width*BitsPerPixel/8; BitsPerPixel defaults to
	// the pixel size of the profile's format.
	Stride       int
	BitsPerPixel int

	// Data is copied; nil means a zeroed frame.
	Data []byte

	// DepthUnits is only used for depth formats; zero means the runtime default.
	DepthUnits float32
	Baseline   float32
}

// NewVideoFrame creates a captured video frame; the caller owns the
// returned reference. Z16 frames are depth frames; Disparity16/32 frames
// are disparity frames.
func (r *Runtime) NewVideoFrame(p VideoFrameParams) (native.FrameHandle, error) {
	rec, err := r.newVideoRecord(p.Profile, p.BitsPerPixel, p.Profile.Width, p.Profile.Height, p.Stride)
	if err != nil {
		return 0, err
	}
	if p.Data != nil {
		if len(p.Data) > len(rec.data) {
			return 0, fmt.Errorf("the data is larger than the frame: %d > %d", len(p.Data), len(rec.data))
		}
		copy(rec.data, p.Data)
	}
	switch p.Profile.Format {
	case native.FormatZ16:
		rec.extensions |= newExtensionSet(native.ExtensionDepthFrame)
	case native.FormatDisparity16, native.FormatDisparity32:
		rec.extensions |= newExtensionSet(native.ExtensionDepthFrame, native.ExtensionDisparityFrame)
	}
	if p.DepthUnits != 0 {
		rec.depthUnits = p.DepthUnits
	}
	rec.baseline = p.Baseline
	return r.publishCaptured(rec, p.FrameParams)
}

func (r *Runtime) newVideoRecord(
	profile native.StreamProfile,
	bpp, width, height, stride int,
) (*frameRecord, error) {
	if bpp == 0 {
		bpp = profile.Format.BitsPerPixel()
	}
	if width <= 0 || height <= 0 || bpp <= 0 {
		return nil, fmt.Errorf("invalid frame geometry %dx%d@%dbpp", width, height, bpp)
	}
	if stride == 0 {
		stride = width * bpp / 8
	}
	if stride*8 < width*bpp {
		return nil, fmt.Errorf("stride %d is too small for %d pixels of %d bits", stride, width, bpp)
	}
	profile.Width, profile.Height = width, height
	return &frameRecord{
		extensions: newExtensionSet(native.ExtensionVideoFrame),
		profile:    profile,
		data:       make([]byte, stride*height),
		width:      width,
		height:     height,
		stride:     stride,
		bpp:        bpp,
		depthUnits: r.config.DepthUnits,
	}, nil
}

// NewMotionFrame creates a captured IMU sample.
func (r *Runtime) NewMotionFrame(p FrameParams, sample native.Vector) (native.FrameHandle, error) {
	data := make([]byte, 12)
	for idx, v := range []float32{sample.X, sample.Y, sample.Z} {
		binary.LittleEndian.PutUint32(data[idx*4:], math.Float32bits(v))
	}
	return r.publishCaptured(&frameRecord{
		extensions: newExtensionSet(native.ExtensionMotionFrame),
		profile:    p.Profile,
		data:       data,
	}, p)
}

func (r *Runtime) NewPoseFrame(p FrameParams, pose native.Pose) (native.FrameHandle, error) {
	return r.publishCaptured(&frameRecord{
		extensions: newExtensionSet(native.ExtensionPoseFrame),
		profile:    p.Profile,
		pose:       pose,
	}, p)
}

func (r *Runtime) NewPointsFrame(
	p FrameParams,
	vertices []native.Vertex,
	texCoords []native.TextureCoordinate,
) (native.FrameHandle, error) {
	if texCoords != nil && len(texCoords) != len(vertices) {
		return 0, fmt.Errorf("%d texture coordinates for %d vertices", len(texCoords), len(vertices))
	}
	if texCoords == nil {
		texCoords = make([]native.TextureCoordinate, len(vertices))
	}
	return r.publishCaptured(&frameRecord{
		extensions: newExtensionSet(native.ExtensionPoints),
		profile:    p.Profile,
		vertices:   append([]native.Vertex(nil), vertices...),
		texCoords:  append([]native.TextureCoordinate(nil), texCoords...),
	}, p)
}

// NewCompositeFrame bundles the frames; it takes ownership of one
// reference per child on success.
func (r *Runtime) NewCompositeFrame(children ...native.FrameHandle) (native.FrameHandle, error) {
	h, nerr := r.AllocateCompositeFrame(0, children)
	if nerr != nil {
		defer r.FreeError(nerr)
		return 0, fmt.Errorf("%s", nerr)
	}
	return h, nil
}

func (r *Runtime) publishCaptured(rec *frameRecord, p FrameParams) (native.FrameHandle, error) {
	rec.number = p.Number
	rec.timestamp = p.Timestamp
	rec.domain = p.Domain
	rec.metadata = map[native.FrameMetadata]int64{
		native.FrameMetadataFrameCounter:   int64(p.Number),
		native.FrameMetadataFrameTimestamp: int64(p.Timestamp * 1000),
		native.FrameMetadataTimeOfArrival:  r.clock.Now().UnixMilli(),
	}
	for k, v := range p.Metadata {
		rec.metadata[k] = v
	}
	key := quotaKey{Stream: rec.profile.Stream, Index: rec.profile.Index}
	rec.quota = &key

	var h native.FrameHandle
	r.do(func() {
		if !r.reserveQuotaLocked(key) {
			return
		}
		h = r.addFrameLocked(rec)
	})
	if h == 0 {
		logger.Warnf(r.ctx, "out of frame resources: stream %s already has %d frames alive", rec.profile, r.config.FramesQueueSize)
		return 0, ErrQuotaExceeded{Profile: rec.profile}
	}
	logger.Tracef(r.ctx, "captured frame %#x: %s #%d", uintptr(h), rec.profile, rec.number)
	return h, nil
}
