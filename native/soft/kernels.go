package soft

import (
	"github.com/xaionaro-go/rsframe/native"
)

// PassthroughKernel publishes every input frame unchanged.
var PassthroughKernel = KernelFunc(func(kctx KernelContext, in native.FrameHandle) *native.Error {
	return kctx.Publish(in)
})

func passthroughFactory(native.BlockSpec) Kernel {
	return PassthroughKernel
}

func (r *Runtime) registerBuiltinKinds() {
	r.kinds[native.BlockKindColorizer] = kindRegistration{
		Factory: func(native.BlockSpec) Kernel { return colorizerKernel{} },
		Options: []OptionSpec{{
			Option:      native.OptionColorScheme,
			Range:       native.OptionRange{Min: 0, Max: 1, Step: 1, Default: 0},
			Description: "Color scheme for data visualization",
			ValueDescriptions: map[float32]string{
				0: "White to Black",
				1: "Black to White",
			},
		}, {
			Option:      native.OptionHistogramEqualizationEnabled,
			Range:       native.OptionRange{Min: 0, Max: 1, Step: 1, Default: 0},
			Description: "Perform histogram equalization",
		}, {
			Option:      native.OptionMinDistance,
			Range:       native.OptionRange{Min: 0, Max: 16, Step: 0.1, Default: 0},
			Description: "Minimum distance in meters",
		}, {
			Option:      native.OptionMaxDistance,
			Range:       native.OptionRange{Min: 0, Max: 16, Step: 0.1, Default: 6},
			Description: "Maximum distance in meters",
		}},
	}
	r.kinds[native.BlockKindSync] = kindRegistration{
		Factory: func(native.BlockSpec) Kernel { return newSyncKernel() },
	}
	r.kinds[native.BlockKindAlign] = kindRegistration{
		Factory: passthroughFactory,
	}
	r.kinds[native.BlockKindPointCloud] = kindRegistration{
		Factory: func(native.BlockSpec) Kernel { return &pointCloudKernel{} },
		Options: []OptionSpec{{
			Option:      native.OptionStreamFilter,
			Range:       native.OptionRange{Min: 0, Max: float32(native.StreamConfidence), Step: 1, Default: float32(native.StreamColor)},
			Description: "Stream type to use as the texture",
		}, {
			Option:      native.OptionStreamFormatFilter,
			Range:       native.OptionRange{Min: 0, Max: float32(native.FormatDisparity32), Step: 1, Default: float32(native.FormatAny)},
			Description: "Stream format to use as the texture",
		}, {
			Option:      native.OptionStreamIndexFilter,
			Range:       native.OptionRange{Min: -1, Max: 5, Step: 1, Default: -1},
			Description: "Stream index to use as the texture",
		}},
	}
	r.kinds[native.BlockKindDisparityTransform] = kindRegistration{
		Factory: passthroughFactory,
	}
	r.kinds[native.BlockKindDecimationFilter] = kindRegistration{
		Factory: passthroughFactory,
		Options: []OptionSpec{{
			Option:      native.OptionFilterMagnitude,
			Range:       native.OptionRange{Min: 2, Max: 8, Step: 1, Default: 2},
			Description: "Decimation linear scale factor",
		}},
	}
	r.kinds[native.BlockKindSpatialFilter] = kindRegistration{
		Factory: passthroughFactory,
		Options: []OptionSpec{{
			Option:      native.OptionFilterMagnitude,
			Range:       native.OptionRange{Min: 1, Max: 5, Step: 1, Default: 2},
			Description: "Number of filter iterations",
		}, {
			Option:      native.OptionFilterSmoothAlpha,
			Range:       native.OptionRange{Min: 0.25, Max: 1, Step: 0.01, Default: 0.5},
			Description: "Alpha factor of the exponential moving average",
		}, {
			Option:      native.OptionFilterSmoothDelta,
			Range:       native.OptionRange{Min: 1, Max: 50, Step: 1, Default: 20},
			Description: "Edge-preserving threshold",
		}, {
			Option:      native.OptionHolesFill,
			Range:       native.OptionRange{Min: 0, Max: 5, Step: 1, Default: 0},
			Description: "Holes filling mode",
		}},
	}
	r.kinds[native.BlockKindTemporalFilter] = kindRegistration{
		Factory: passthroughFactory,
		Options: []OptionSpec{{
			Option:      native.OptionFilterSmoothAlpha,
			Range:       native.OptionRange{Min: 0, Max: 1, Step: 0.1, Default: 0.4},
			Description: "Alpha factor of the exponential moving average",
		}, {
			Option:      native.OptionFilterSmoothDelta,
			Range:       native.OptionRange{Min: 1, Max: 100, Step: 1, Default: 20},
			Description: "Edge-preserving threshold",
		}, {
			Option:      native.OptionHolesFill,
			Range:       native.OptionRange{Min: 0, Max: 8, Step: 1, Default: 3},
			Description: "Persistency mode",
		}},
	}
	r.kinds[native.BlockKindHoleFillingFilter] = kindRegistration{
		Factory: passthroughFactory,
		Options: []OptionSpec{{
			Option:      native.OptionHolesFill,
			Range:       native.OptionRange{Min: 0, Max: 2, Step: 1, Default: 1},
			Description: "Hole filling mode",
			ValueDescriptions: map[float32]string{
				0: "Fill from left",
				1: "Farest from around",
				2: "Nearest from around",
			},
		}},
	}
	r.kinds[native.BlockKindThresholdFilter] = kindRegistration{
		Factory: passthroughFactory,
		Options: []OptionSpec{{
			Option:      native.OptionMinDistance,
			Range:       native.OptionRange{Min: 0, Max: 16, Step: 0.1, Default: 0.1},
			Description: "Min range in meters",
		}, {
			Option:      native.OptionMaxDistance,
			Range:       native.OptionRange{Min: 0, Max: 16, Step: 0.1, Default: 4},
			Description: "Max range in meters",
		}},
	}
}

// colorizerKernel maps Z16 depth onto an RGB8 gray ramp between the
// min and max distance options. Anything else passes through.
type colorizerKernel struct{}

func (colorizerKernel) Process(kctx KernelContext, in native.FrameHandle) *native.Error {
	r := kctx.Runtime
	rec, nerr := r.lookup("colorize", in)
	if nerr != nil {
		r.ReleaseFrame(in)
		return nerr
	}
	if !rec.extensions.Has(native.ExtensionDepthFrame) || rec.profile.Format != native.FormatZ16 {
		return kctx.Publish(in)
	}
	defer r.ReleaseFrame(in)

	profile := rec.profile
	profile.Format = native.FormatRGB8
	out, nerr := r.AllocateSyntheticVideoFrame(kctx.Source, profile, in, 24, rec.width, rec.height, rec.width*3, native.ExtensionVideoFrame)
	if nerr != nil || out == 0 {
		return nerr
	}
	outRec, nerr := r.lookup("colorize", out)
	if nerr != nil {
		r.ReleaseFrame(out)
		return nerr
	}

	minDist := kctx.Option(native.OptionMinDistance, 0)
	maxDist := kctx.Option(native.OptionMaxDistance, 6)
	inverted := kctx.Option(native.OptionColorScheme, 0) != 0
	for y := 0; y < rec.height; y++ {
		for x := 0; x < rec.width; x++ {
			raw := depthAt(rec, x, y)
			if raw == 0 {
				continue
			}
			dist := raw * rec.depthUnits
			var level float32
			switch {
			case dist <= minDist:
				level = 1
			case dist >= maxDist:
				level = 0
			default:
				level = 1 - (dist-minDist)/(maxDist-minDist)
			}
			if inverted {
				level = 1 - level
			}
			v := byte(level * 255)
			idx := y*outRec.stride + x*3
			outRec.data[idx], outRec.data[idx+1], outRec.data[idx+2] = v, v, v
		}
	}
	return kctx.Publish(out)
}

// pointCloudKernel turns depth frames into points, deprojecting through a
// pinhole with the focal length equal to the frame width. A frame of
// the texture stream is remembered and its shape used for texture
// coordinates.
type pointCloudKernel struct {
	texture *native.StreamProfile
}

func (k *pointCloudKernel) isTexture(kctx KernelContext, p native.StreamProfile) bool {
	stream := native.Stream(kctx.Option(native.OptionStreamFilter, float32(native.StreamColor)))
	format := native.Format(kctx.Option(native.OptionStreamFormatFilter, float32(native.FormatAny)))
	index := int(kctx.Option(native.OptionStreamIndexFilter, -1))
	if p.Stream != stream {
		return false
	}
	if format != native.FormatAny && p.Format != format {
		return false
	}
	return index < 0 || p.Index == index
}

func (k *pointCloudKernel) Process(kctx KernelContext, in native.FrameHandle) *native.Error {
	r := kctx.Runtime
	defer r.ReleaseFrame(in)
	rec, nerr := r.lookup("pointcloud", in)
	if nerr != nil {
		return nerr
	}
	if !rec.extensions.Has(native.ExtensionDepthFrame) {
		if rec.extensions.Has(native.ExtensionVideoFrame) && k.isTexture(kctx, rec.profile) {
			profile := rec.profile
			k.texture = &profile
		}
		return nil
	}

	profile := rec.profile
	profile.Format = native.FormatXYZ32F
	out, nerr := r.AllocateSyntheticVideoFrame(kctx.Source, profile, in, 0, rec.width, rec.height, 0, native.ExtensionPoints)
	if nerr != nil || out == 0 {
		return nerr
	}
	outRec, nerr := r.lookup("pointcloud", out)
	if nerr != nil {
		r.ReleaseFrame(out)
		return nerr
	}
	focal := float32(rec.width)
	cx, cy := float32(rec.width)/2, float32(rec.height)/2
	for y := 0; y < rec.height; y++ {
		for x := 0; x < rec.width; x++ {
			idx := y*rec.width + x
			z := depthAt(rec, x, y) * rec.depthUnits
			outRec.vertices[idx] = native.Vertex{
				X: (float32(x) - cx) * z / focal,
				Y: (float32(y) - cy) * z / focal,
				Z: z,
			}
			if k.texture != nil {
				outRec.texCoords[idx] = native.TextureCoordinate{
					U: float32(x) / float32(rec.width),
					V: float32(y) / float32(rec.height),
				}
			}
		}
	}
	return kctx.Publish(out)
}
