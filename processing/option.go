// option.go defines functional options for configuring processing blocks.

package processing

import (
	"context"
	"time"

	"github.com/xaionaro-go/rsframe/frame"
)

type config struct {
	Name          string
	ResultTimeout time.Duration
	OnDrop        func(ctx context.Context, stale frame.Abstract)
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
	cfg := config{}
	s.apply(&cfg)
	return cfg
}

// OptionName sets the name used in logs and errors.
type OptionName string

func (opt OptionName) apply(cfg *config) {
	cfg.Name = string(opt)
}

// OptionResultTimeout makes Process wait up to the duration for the
// result; by default the result is polled without waiting, which is
// enough for native blocks that complete before ProcessFrame returns.
type OptionResultTimeout time.Duration

func (opt OptionResultTimeout) apply(cfg *config) {
	cfg.ResultTimeout = time.Duration(opt)
}

// OptionOnDrop is called with a result that got replaced by a newer one
// before anybody retrieved it. The callback owns the frame.
type OptionOnDrop func(ctx context.Context, stale frame.Abstract)

func (opt OptionOnDrop) apply(cfg *config) {
	cfg.OnDrop = opt
}
