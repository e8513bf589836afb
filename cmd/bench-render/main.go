// bench-render is a standalone benchmark for frame rendering throughput.
// Designed to be called by hyperfine for statistical analysis.
//
// Usage:
//
//	bench-render [--frames N] [--workers N] [--impl pool|serial] [--blend multiply|overlay]
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/blend"
	"github.com/linuxmatters/jivewave/internal/config"
	"github.com/linuxmatters/jivewave/internal/media"
	"github.com/linuxmatters/jivewave/internal/renderer"
	"github.com/linuxmatters/jivewave/internal/sequencer"
)

const (
	fps        = 30
	sampleRate = 48000
)

// discardSink drops every frame, so only rendering is measured.
type discardSink struct {
	frames int
}

func (s *discardSink) WriteFrame(*image.RGBA) error {
	s.frames++
	return nil
}

// testSamples builds a decaying 220Hz tone long enough for frames frames.
func testSamples(frames int) *audio.SampleBuffer {
	n := frames * sampleRate / fps
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / sampleRate
		samples[i] = math.Sin(2*math.Pi*220*t) * math.Exp(-math.Mod(t, 1))
	}
	return audio.NewSampleBuffer(samples, sampleRate, 1)
}

// gradient fills a canvas with a diagonal RGB ramp.
func gradient(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(x * 255 / width)
			img.Pix[i+1] = uint8(y * 255 / height)
			img.Pix[i+2] = uint8((x + y) % 256)
			img.Pix[i+3] = 255
		}
	}
	return img
}

func main() {
	frames := flag.Int("frames", 300, "number of frames to render")
	workers := flag.Int("workers", 0, "render workers, 0 for one per CPU")
	impl := flag.String("impl", "pool", "implementation: pool or serial")
	blendMode := flag.String("blend", "", "blend a synthetic overlay with this mode")
	frameSize := flag.String("size", "1280x720", "frame size as WIDTHxHEIGHT")
	flag.Parse()

	opts := config.Options{
		FPS:            fps,
		FrameSize:      *frameSize,
		WaveformHeight: config.DefaultWaveformHeight,
		WaveformColor:  config.DefaultColor,
		GlowColor:      config.DefaultColor,
		GlowScale:      config.DefaultGlowScale,
		BlendMode:      *blendMode,
		Workers:        *workers,
	}
	if *blendMode != "" {
		// The path is never opened here; it only switches the overlay on.
		opts.OverlayImage = "synthetic"
	}
	cfg, err := config.New(opts, blend.Validate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var overlay *image.RGBA
	if cfg.HasOverlay() {
		overlay = gradient(cfg.Width(), cfg.Height())
	}
	r, err := renderer.NewRenderer(cfg, overlay)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	samples := testSamples(*frames)
	background := media.NewStaticImage(gradient(cfg.Width(), cfg.Height()))

	seq, err := sequencer.New(samples, background, r, fps, cfg.Workers())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch *impl {
	case "pool":
		sink := &discardSink{}
		if err := seq.Run(context.Background(), sink); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "serial":
		for k := 0; k < seq.FrameCount(); k++ {
			frame, err := seq.RenderAt(float64(k) / fps)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			r.Release(frame)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown implementation: %s (use 'pool' or 'serial')\n", *impl)
		os.Exit(1)
	}
}
