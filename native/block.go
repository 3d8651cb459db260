package native

import (
	"fmt"
)

// BlockKind selects one of the processing blocks the runtime provides.
type BlockKind int

const (
	BlockKindUndefined = BlockKind(iota)
	BlockKindColorizer
	BlockKindSync
	BlockKindAlign
	BlockKindPointCloud
	BlockKindDisparityTransform
	BlockKindDecimationFilter
	BlockKindSpatialFilter
	BlockKindTemporalFilter
	BlockKindHoleFillingFilter
	BlockKindThresholdFilter
)

func (k BlockKind) String() string {
	switch k {
	case BlockKindUndefined:
		return "undefined"
	case BlockKindColorizer:
		return "colorizer"
	case BlockKindSync:
		return "sync"
	case BlockKindAlign:
		return "align"
	case BlockKindPointCloud:
		return "pointcloud"
	case BlockKindDisparityTransform:
		return "disparity_transform"
	case BlockKindDecimationFilter:
		return "decimation_filter"
	case BlockKindSpatialFilter:
		return "spatial_filter"
	case BlockKindTemporalFilter:
		return "temporal_filter"
	case BlockKindHoleFillingFilter:
		return "hole_filling_filter"
	case BlockKindThresholdFilter:
		return "threshold_filter"
	default:
		return fmt.Sprintf("unknown_block_kind_%d", int(k))
	}
}

// BlockSpec parametrizes block creation; AlignTo is only used by
// BlockKindAlign and TransformToDisparity by BlockKindDisparityTransform.
type BlockSpec struct {
	Kind                 BlockKind
	AlignTo              Stream
	TransformToDisparity bool
}

func (s BlockSpec) String() string {
	switch s.Kind {
	case BlockKindAlign:
		return fmt.Sprintf("%s(to:%s)", s.Kind, s.AlignTo)
	case BlockKindDisparityTransform:
		return fmt.Sprintf("%s(to_disparity:%t)", s.Kind, s.TransformToDisparity)
	default:
		return s.Kind.String()
	}
}
