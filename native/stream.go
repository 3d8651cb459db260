package native

import (
	"fmt"
)

type Stream int

const (
	StreamAny = Stream(iota)
	StreamDepth
	StreamColor
	StreamInfrared
	StreamFisheye
	StreamGyro
	StreamAccel
	StreamGPIO
	StreamPose
	StreamConfidence
)

func (s Stream) String() string {
	switch s {
	case StreamAny:
		return "any"
	case StreamDepth:
		return "depth"
	case StreamColor:
		return "color"
	case StreamInfrared:
		return "infrared"
	case StreamFisheye:
		return "fisheye"
	case StreamGyro:
		return "gyro"
	case StreamAccel:
		return "accel"
	case StreamGPIO:
		return "gpio"
	case StreamPose:
		return "pose"
	case StreamConfidence:
		return "confidence"
	default:
		return fmt.Sprintf("unknown_stream_%d", int(s))
	}
}

type Format int

const (
	FormatAny = Format(iota)
	FormatZ16
	FormatDisparity16
	FormatXYZ32F
	FormatYUYV
	FormatRGB8
	FormatBGR8
	FormatRGBA8
	FormatBGRA8
	FormatY8
	FormatY16
	FormatRAW10
	FormatRAW16
	FormatRAW8
	FormatUYVY
	FormatMotionRaw
	FormatMotionXYZ32F
	FormatGPIORaw
	FormatSixDOF
	FormatDisparity32
)

var formatNames = map[Format]string{
	FormatAny:          "any",
	FormatZ16:          "z16",
	FormatDisparity16:  "disparity16",
	FormatXYZ32F:       "xyz32f",
	FormatYUYV:         "yuyv",
	FormatRGB8:         "rgb8",
	FormatBGR8:         "bgr8",
	FormatRGBA8:        "rgba8",
	FormatBGRA8:        "bgra8",
	FormatY8:           "y8",
	FormatY16:          "y16",
	FormatRAW10:        "raw10",
	FormatRAW16:        "raw16",
	FormatRAW8:         "raw8",
	FormatUYVY:         "uyvy",
	FormatMotionRaw:    "motion_raw",
	FormatMotionXYZ32F: "motion_xyz32f",
	FormatGPIORaw:      "gpio_raw",
	FormatSixDOF:       "6dof",
	FormatDisparity32:  "disparity32",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown_format_%d", int(f))
}

// BitsPerPixel returns 0 for formats without a fixed pixel size.
func (f Format) BitsPerPixel() int {
	switch f {
	case FormatY8, FormatRAW8:
		return 8
	case FormatZ16, FormatDisparity16, FormatY16, FormatRAW16, FormatYUYV, FormatUYVY:
		return 16
	case FormatRGB8, FormatBGR8:
		return 24
	case FormatRGBA8, FormatBGRA8, FormatDisparity32:
		return 32
	case FormatXYZ32F:
		return 96
	default:
		return 0
	}
}

type TimestampDomain int

const (
	TimestampDomainHardwareClock = TimestampDomain(iota)
	TimestampDomainSystemTime
	TimestampDomainGlobalTime
)

func (d TimestampDomain) String() string {
	switch d {
	case TimestampDomainHardwareClock:
		return "hardware_clock"
	case TimestampDomainSystemTime:
		return "system_time"
	case TimestampDomainGlobalTime:
		return "global_time"
	default:
		return fmt.Sprintf("unknown_timestamp_domain_%d", int(d))
	}
}

type FrameMetadata int

const (
	FrameMetadataFrameCounter = FrameMetadata(iota)
	FrameMetadataFrameTimestamp
	FrameMetadataSensorTimestamp
	FrameMetadataActualExposure
	FrameMetadataGainLevel
	FrameMetadataAutoExposure
	FrameMetadataTimeOfArrival
	FrameMetadataTemperature
	FrameMetadataBackendTimestamp
	FrameMetadataActualFPS
)
