package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/jivewave/internal/blend"
	"github.com/linuxmatters/jivewave/internal/config"
)

// Timings accumulates time spent in each rendering stage across all frames.
type Timings struct {
	Composite time.Duration
	Waveform  time.Duration
}

// Renderer produces finished frames: composited background plus waveform.
// RenderFrame is safe to call from several goroutines at once.
type Renderer struct {
	width      int
	height     int
	compositor *Compositor
	waveform   *Rasterizer

	framePool sync.Pool

	compositeNanos atomic.Int64
	waveformNanos  atomic.Int64
}

// NewRenderer builds a renderer from cfg. overlay is the already scaled
// overlay layer, or nil.
func NewRenderer(cfg config.RenderConfig, overlay *image.RGBA) (*Renderer, error) {
	glow, err := DefaultGlowProfile().Scale(cfg.GlowScale())
	if err != nil {
		return nil, err
	}

	var fn blend.Func
	if overlay != nil {
		fn, err = blend.Lookup(cfg.BlendMode())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
	}

	compositor, err := NewCompositor(cfg.Width(), cfg.Height(), overlay, fn, cfg.Grayscale(), cfg.SwapLayers())
	if err != nil {
		return nil, err
	}

	width, height := cfg.Width(), cfg.Height()
	r := &Renderer{
		width:      width,
		height:     height,
		compositor: compositor,
		waveform:   NewRasterizer(width, height, cfg.WaveformHeight(), cfg.WaveformColor(), cfg.GlowColor(), glow),
	}
	r.framePool.New = func() any {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return r, nil
}

// RenderFrame composites bg with the overlay and strokes samples on top. The
// returned frame is owned by the caller until it is handed back with Release.
func (r *Renderer) RenderFrame(bg *image.RGBA, samples []float64) (*image.RGBA, error) {
	frame := r.framePool.Get().(*image.RGBA)

	start := time.Now()
	if err := r.compositor.Composite(frame, bg); err != nil {
		r.framePool.Put(frame)
		return nil, err
	}
	mid := time.Now()
	r.waveform.Draw(frame, samples)

	r.compositeNanos.Add(int64(mid.Sub(start)))
	r.waveformNanos.Add(int64(time.Since(mid)))

	return frame, nil
}

// Release returns a frame from RenderFrame to the pool.
func (r *Renderer) Release(frame *image.RGBA) {
	if frame != nil && frame.Rect.Dx() == r.width && frame.Rect.Dy() == r.height {
		r.framePool.Put(frame)
	}
}

// Timings reports the accumulated stage durations.
func (r *Renderer) Timings() Timings {
	return Timings{
		Composite: time.Duration(r.compositeNanos.Load()),
		Waveform:  time.Duration(r.waveformNanos.Load()),
	}
}

// SavePNG writes a frame to outputPath.
func SavePNG(img *image.RGBA, outputPath string) error {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	if err := png.Encode(outFile, img); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}
