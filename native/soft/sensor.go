package soft

import (
	"context"
	"errors"
	"time"

	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"go.uber.org/atomic"
)

// SensorConfig describes a software video sensor.
type SensorConfig struct {
	Profile    native.StreamProfile
	DepthUnits float32

	// Fill writes the pixels of frame number n into data; nil leaves the
	// frames zeroed.
	Fill func(n uint64, data []byte)
}

// Sensor produces video frames at the FPS of its profile until closed.
type Sensor struct {
	Config   SensorConfig
	Produced atomic.Uint64
	Dropped  atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// StartSensor starts producing frames; every frame is passed to onFrame
// which receives the ownership of its reference. Frames that cannot be
// allocated because the consumer holds too many are skipped.
func (r *Runtime) StartSensor(
	ctx context.Context,
	cfg SensorConfig,
	onFrame native.FrameCallback,
) *Sensor {
	ctx, cancel := context.WithCancel(ctx)
	s := &Sensor{
		Config: cfg,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	fps := cfg.Profile.FPS
	if fps <= 0 {
		fps = 30
	}
	observability.Go(ctx, func(ctx context.Context) {
		defer close(s.done)
		logger.Debugf(ctx, "sensor %s started", cfg.Profile)
		defer logger.Debugf(ctx, "sensor %s stopped", cfg.Profile)

		ticker := r.clock.Ticker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		startedAt := r.clock.Now()
		for number := uint64(1); ; number++ {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				var data []byte
				if cfg.Fill != nil {
					data = make([]byte, cfg.Profile.Width*cfg.Profile.Height*cfg.Profile.Format.BitsPerPixel()/8)
					cfg.Fill(number, data)
				}
				h, err := r.NewVideoFrame(VideoFrameParams{
					FrameParams: FrameParams{
						Profile:   cfg.Profile,
						Number:    number,
						Timestamp: float64(now.Sub(startedAt)) / float64(time.Millisecond),
						Domain:    native.TimestampDomainSystemTime,
					},
					Data:       data,
					DepthUnits: cfg.DepthUnits,
				})
				if err != nil {
					if errors.As(err, &ErrQuotaExceeded{}) {
						s.Dropped.Inc()
						continue
					}
					logger.Errorf(ctx, "unable to produce a frame of %s: %v", cfg.Profile, err)
					return
				}
				s.Produced.Inc()
				onFrame(h)
			}
		}
	})
	return s
}

func (s *Sensor) Close(ctx context.Context) error {
	s.cancel()
	<-s.done
	return nil
}
