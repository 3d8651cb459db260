// option.go defines functional options for configuring the runtime.

package soft

import (
	"github.com/benbjohnson/clock"
)

// DefaultFramesQueueSize is the amount of frames of one stream that may be
// alive at the same time, per allocating source.
const DefaultFramesQueueSize = 16

type config struct {
	Clock           clock.Clock
	FramesQueueSize uint
	DepthUnits      float32
}

func defaultConfig() config {
	return config{
		Clock:           clock.New(),
		FramesQueueSize: DefaultFramesQueueSize,
		DepthUnits:      0.001,
	}
}

type Option interface {
	apply(*config)
}

type Options []Option

func (s Options) apply(cfg *config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) config() config {
	cfg := defaultConfig()
	s.apply(&cfg)
	return cfg
}

type OptionClock struct {
	Clock clock.Clock
}

func (opt OptionClock) apply(cfg *config) {
	cfg.Clock = opt.Clock
}

type OptionFramesQueueSize uint

func (opt OptionFramesQueueSize) apply(cfg *config) {
	cfg.FramesQueueSize = uint(opt)
}

// OptionDepthUnits is the amount of meters in one Z16 unit of frames
// created without explicit units.
type OptionDepthUnits float32

func (opt OptionDepthUnits) apply(cfg *config) {
	cfg.DepthUnits = float32(opt)
}
