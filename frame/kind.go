package frame

import (
	"fmt"

	"github.com/xaionaro-go/rsframe/native"
)

// Kind is the wrapper variant a handle was dispatched to.
type Kind int

const (
	KindPlain = Kind(iota)
	KindVideo
	KindDepth
	KindDisparity
	KindMotion
	KindPose
	KindPoints
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "frame"
	case KindVideo:
		return "video"
	case KindDepth:
		return "depth"
	case KindDisparity:
		return "disparity"
	case KindMotion:
		return "motion"
	case KindPose:
		return "pose"
	case KindPoints:
		return "points"
	case KindSet:
		return "frameset"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Extension returns the capability tag that selects the variant.
func (k Kind) Extension() native.Extension {
	switch k {
	case KindVideo:
		return native.ExtensionVideoFrame
	case KindDepth:
		return native.ExtensionDepthFrame
	case KindDisparity:
		return native.ExtensionDisparityFrame
	case KindMotion:
		return native.ExtensionMotionFrame
	case KindPose:
		return native.ExtensionPoseFrame
	case KindPoints:
		return native.ExtensionPoints
	case KindSet:
		return native.ExtensionCompositeFrame
	default:
		return native.ExtensionUndefined
	}
}

// dispatchOrder is the probing priority: the first matching tag wins.
var dispatchOrder = []Kind{
	KindSet,
	KindPoints,
	KindDisparity,
	KindDepth,
	KindVideo,
	KindMotion,
	KindPose,
}
