package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/logger"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/native/soft"
	"github.com/xaionaro-go/rsframe/processing"
	"github.com/xaionaro-go/rsframe/queue"
	"github.com/xaionaro-go/rsframe/releaser"
	"go.uber.org/atomic"
)

type frameDump struct {
	Profile   native.StreamProfile
	Number    uint64
	Timestamp float64
	Size      string
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	fps := pflag.Int("fps", 30, "frames per second of the software sensors")
	width := pflag.Int("width", 640, "frame width")
	height := pflag.Int("height", 480, "frame height")
	duration := pflag.Duration("duration", 5*time.Second, "how long to run; zero means until interrupted")
	maxDistance := pflag.Float32("max-distance", 2, "color pixels farther than this (in meters) are masked out")
	dump := pflag.Bool("dump", false, "dump every produced frame")
	pflag.Parse()
	if len(pflag.Args()) != 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	if *duration > 0 {
		ctx, cancelFn = context.WithTimeout(ctx, *duration)
		defer cancelFn()
	}

	rt := soft.New(ctx)

	syncer, err := processing.NewSyncer(ctx, rt, 1)
	if err != nil {
		l.Fatal(err)
	}
	defer syncer.Close(ctx)

	mask, err := processing.NewCustomBlock(ctx, rt, maskFarPixels(*maxDistance), processing.OptionName("mask-far-pixels"))
	if err != nil {
		l.Fatal(err)
	}
	defer mask.Close(ctx)

	output, err := queue.New(ctx, rt, 4)
	if err != nil {
		l.Fatal(err)
	}
	defer output.Close(ctx)
	if err := mask.Start(ctx, output); err != nil {
		l.Fatal(err)
	}

	submit := func(h native.FrameHandle) {
		f, err := frame.New(ctx, rt, h)
		if err != nil {
			l.Errorf("unable to wrap a captured frame: %v", err)
			return
		}
		defer f.Release(ctx)
		if err := syncer.SubmitFrame(ctx, f); err != nil {
			l.Errorf("unable to submit %s: %v", f, err)
		}
	}

	depthSensor := rt.StartSensor(ctx, soft.SensorConfig{
		Profile: native.StreamProfile{
			Stream: native.StreamDepth,
			Format: native.FormatZ16,
			Width:  *width,
			Height: *height,
			FPS:    *fps,
		},
		Fill: depthRamp(*width, *height),
	}, submit)
	defer depthSensor.Close(ctx)
	colorSensor := rt.StartSensor(ctx, soft.SensorConfig{
		Profile: native.StreamProfile{
			Stream: native.StreamColor,
			Format: native.FormatRGB8,
			Width:  *width,
			Height: *height,
			FPS:    *fps,
		},
		Fill: func(n uint64, data []byte) {
			for idx := range data {
				data[idx] = byte(n + uint64(idx))
			}
		},
	}, submit)
	defer colorSensor.Close(ctx)

	observability.Go(ctx, func(ctx context.Context) {
		iteration := releaser.New()
		for ctx.Err() == nil {
			set, err := nextSet(ctx, syncer, iteration)
			if err != nil {
				logger.Debugf(ctx, "no frameset: %v", err)
				continue
			}
			if err := mask.ProcessFrames(ctx, set); err != nil {
				l.Errorf("unable to mask %s: %v", set, err)
			}
			if err := iteration.Close(ctx); err != nil {
				l.Errorf("unable to release the frameset: %v", err)
			}
		}
	})

	var (
		outFrames atomic.Uint64
		outBytes  atomic.Uint64
	)
	observability.Go(ctx, func(ctx context.Context) {
		for ctx.Err() == nil {
			f, err := output.WaitForFrame(ctx, 100*time.Millisecond)
			if err != nil {
				continue
			}
			size, _ := f.DataSize(ctx)
			outFrames.Inc()
			outBytes.Add(uint64(size))
			if *dump {
				d := frameDump{Size: humanize.Bytes(uint64(size))}
				d.Profile, _ = f.Profile(ctx)
				d.Number, _ = f.Number(ctx)
				d.Timestamp, _ = f.Timestamp(ctx)
				spew.Fdump(os.Stdout, d)
			}
			f.Release(ctx)
		}
	})

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			stats := rt.Stats()
			l.Debugf("runtime stats: %s", spew.Sdump(stats))
			fmt.Printf("done: %d frames, %s; sensor drops: depth=%d color=%d\n",
				outFrames.Load(), humanize.Bytes(outBytes.Load()),
				depthSensor.Dropped.Load(), colorSensor.Dropped.Load(),
			)
			return
		case <-t.C:
			blockStats := mask.Counters.ToStats()
			fmt.Printf("synced:%d masked:%d out:%d (%s) live_frames:%d\n",
				syncer.Counters.Retrieved.Load(),
				blockStats.Generated,
				outFrames.Load(), humanize.Bytes(outBytes.Load()),
				rt.Stats().LiveFrames,
			)
		}
	}
}

// nextSet waits for the next synced frameset; it is released by r.
func nextSet(
	ctx context.Context,
	syncer *processing.Syncer,
	r *releaser.Releaser,
) (*frame.Set, error) {
	set, err := syncer.WaitForFrames(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	return releaser.ScopedReturn(ctx, r, set), nil
}

// depthRamp fills Z16 frames with distances growing from 0.5m at the
// left edge to 4.5m at the right one, shifting a bit every frame.
func depthRamp(width, height int) func(n uint64, data []byte) {
	return func(n uint64, data []byte) {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				mm := 500 + (x*4000/width+int(n*10))%4000
				binary.LittleEndian.PutUint16(data[(y*width+x)*2:], uint16(mm))
			}
		}
	}
}
