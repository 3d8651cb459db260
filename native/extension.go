package native

import (
	"fmt"
)

// Extension is a capability tag a frame handle can be probed for.
type Extension int

const (
	ExtensionUndefined = Extension(iota)
	ExtensionVideoFrame
	ExtensionMotionFrame
	ExtensionCompositeFrame
	ExtensionPoints
	ExtensionDepthFrame
	ExtensionDisparityFrame
	ExtensionPoseFrame
)

func (ext Extension) String() string {
	switch ext {
	case ExtensionUndefined:
		return "undefined"
	case ExtensionVideoFrame:
		return "video_frame"
	case ExtensionMotionFrame:
		return "motion_frame"
	case ExtensionCompositeFrame:
		return "composite_frame"
	case ExtensionPoints:
		return "points"
	case ExtensionDepthFrame:
		return "depth_frame"
	case ExtensionDisparityFrame:
		return "disparity_frame"
	case ExtensionPoseFrame:
		return "pose_frame"
	default:
		return fmt.Sprintf("unknown_extension_%d", int(ext))
	}
}
