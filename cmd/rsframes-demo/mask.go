package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/xaionaro-go/rsframe/frame"
	"github.com/xaionaro-go/rsframe/native"
	"github.com/xaionaro-go/rsframe/processing"
)

// maskFarPixels returns a process function which takes a depth+color
// frameset and publishes a copy of the color frame with every pixel
// farther than maxDistance (or without depth data) blacked out.
func maskFarPixels(maxDistance float32) processing.ProcessFunc {
	return func(ctx context.Context, in frame.Abstract, src *processing.FrameSource) error {
		set, err := frame.FromFrame(ctx, in)
		if err != nil {
			return err
		}
		defer set.Release(ctx)

		depth, err := set.DepthFrame(ctx)
		if err != nil {
			return fmt.Errorf("unable to get the depth frame: %w", err)
		}
		color, err := set.ColorFrame(ctx)
		if err != nil {
			return fmt.Errorf("unable to get the color frame: %w", err)
		}
		if depth == nil || color == nil {
			return nil
		}

		width, err := color.Width(ctx)
		if err != nil {
			return err
		}
		height, err := color.Height(ctx)
		if err != nil {
			return err
		}
		stride, err := color.Stride(ctx)
		if err != nil {
			return err
		}
		bpp, err := color.BitsPerPixel(ctx)
		if err != nil {
			return err
		}
		pixels := make([]byte, stride*height)
		if _, err := color.CopyTo(ctx, pixels); err != nil {
			return err
		}

		depthWidth, err := depth.Width(ctx)
		if err != nil {
			return err
		}
		depthHeight, err := depth.Height(ctx)
		if err != nil {
			return err
		}
		if depthWidth != width || depthHeight != height {
			return fmt.Errorf("depth is %dx%d while color is %dx%d; align them first", depthWidth, depthHeight, width, height)
		}

		depthData, err := depth.Data(ctx)
		if err != nil {
			return err
		}
		depthStride, err := depth.Stride(ctx)
		if err != nil {
			return err
		}
		units, err := depth.Units(ctx)
		if err != nil {
			return err
		}

		pixelSize := bpp / 8
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dist := float32(binary.LittleEndian.Uint16(depthData[y*depthStride+x*2:])) * units
				if dist > 0 && dist <= maxDistance {
					continue
				}
				row := pixels[y*stride:]
				clear(row[x*pixelSize : (x+1)*pixelSize])
			}
		}

		out, err := src.AllocateVideoFrame(ctx, native.StreamProfile{}, color, bpp, width, height, stride, native.ExtensionVideoFrame)
		if err != nil {
			return err
		}
		defer out.Release(ctx)
		if err := out.CopyFrom(ctx, pixels); err != nil {
			return err
		}
		return src.FrameReady(ctx, out)
	}
}
