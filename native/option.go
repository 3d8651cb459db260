package native

import (
	"fmt"
)

// Option identifies a tunable numeric parameter of a processing block.
type Option int

const (
	OptionColorScheme = Option(iota)
	OptionHistogramEqualizationEnabled
	OptionMinDistance
	OptionMaxDistance
	OptionFilterMagnitude
	OptionFilterSmoothAlpha
	OptionFilterSmoothDelta
	OptionHolesFill
	OptionStreamFilter
	OptionStreamFormatFilter
	OptionStreamIndexFilter
	OptionFramesQueueSize
	OptionVisualPreset

	// OptionCustomBase is the first value free for options registered
	// by custom processing blocks.
	OptionCustomBase = Option(1000)
)

var optionNames = map[Option]string{
	OptionColorScheme:                  "color_scheme",
	OptionHistogramEqualizationEnabled: "histogram_equalization_enabled",
	OptionMinDistance:                  "min_distance",
	OptionMaxDistance:                  "max_distance",
	OptionFilterMagnitude:              "filter_magnitude",
	OptionFilterSmoothAlpha:            "filter_smooth_alpha",
	OptionFilterSmoothDelta:            "filter_smooth_delta",
	OptionHolesFill:                    "holes_fill",
	OptionStreamFilter:                 "stream_filter",
	OptionStreamFormatFilter:           "stream_format_filter",
	OptionStreamIndexFilter:            "stream_index_filter",
	OptionFramesQueueSize:              "frames_queue_size",
	OptionVisualPreset:                 "visual_preset",
}

func (opt Option) String() string {
	if name, ok := optionNames[opt]; ok {
		return name
	}
	if opt >= OptionCustomBase {
		return fmt.Sprintf("custom_option_%d", int(opt-OptionCustomBase))
	}
	return fmt.Sprintf("unknown_option_%d", int(opt))
}

type OptionRange struct {
	Min     float32
	Max     float32
	Step    float32
	Default float32
}

// Contains reports whether value lies inside [Min, Max].
func (r OptionRange) Contains(value float32) bool {
	return value >= r.Min && value <= r.Max
}
