package renderer

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/raster"
	"golang.org/x/image/math/fixed"

	"github.com/linuxmatters/jivewave/internal/config"
)

// Rasterizer strokes a window of samples onto a frame as a glowing
// polyline. It is safe for concurrent use; each Draw takes its own scanline
// rasterizer from a pool.
type Rasterizer struct {
	width          int
	height         int
	waveformHeight float64
	lineColor      color.RGBA
	glowColor      color.RGBA
	glow           GlowProfile

	pool sync.Pool
}

// NewRasterizer prepares a waveform rasterizer for a width x height canvas.
func NewRasterizer(width, height, waveformHeight int, lineColor, glowColor color.RGBA, glow GlowProfile) *Rasterizer {
	r := &Rasterizer{
		width:          width,
		height:         height,
		waveformHeight: float64(waveformHeight),
		lineColor:      lineColor,
		glowColor:      glowColor,
		glow:           glow,
	}
	r.pool.New = func() any {
		rr := raster.NewRasterizer(width, height)
		rr.UseNonZeroWinding = true
		return rr
	}
	return r
}

// Draw paints samples onto dst: glow layers first, then the opaque line.
// An empty window leaves dst untouched.
func (r *Rasterizer) Draw(dst *image.RGBA, samples []float64) {
	path := r.polyline(samples)
	if path == nil {
		return
	}

	rr := r.pool.Get().(*raster.Rasterizer)
	defer r.pool.Put(rr)

	painter := raster.NewRGBAPainter(dst)

	for _, layer := range r.glow.layers {
		if layer.Alpha == 0 {
			continue
		}
		painter.SetColor(color.NRGBA{
			R: r.glowColor.R,
			G: r.glowColor.G,
			B: r.glowColor.B,
			A: uint8(layer.Alpha*255 + 0.5),
		})
		r.stroke(rr, path, layer.Width, painter)
	}

	painter.SetColor(r.lineColor)
	r.stroke(rr, path, config.MainStrokeWidth, painter)
}

func (r *Rasterizer) stroke(rr *raster.Rasterizer, path raster.Path, width float64, p raster.Painter) {
	rr.Clear()
	raster.Stroke(rr, path, fixed.Int26_6(width*64), raster.RoundCapper, raster.RoundJoiner)
	rr.Rasterize(p)
}

// polyline maps samples to canvas points. Sample i sits at
// x = i * width / (n-1) and y = height/2 - sample*waveformHeight/2.
func (r *Rasterizer) polyline(samples []float64) raster.Path {
	n := len(samples)
	if n == 0 {
		return nil
	}

	mid := float64(r.height) / 2
	half := r.waveformHeight / 2
	w := float64(r.width)

	if n == 1 {
		y := mid - samples[0]*half
		var path raster.Path
		path.Start(point(0, y))
		path.Add1(point(w, y))
		return path
	}

	path := make(raster.Path, 0, n*4)
	step := w / float64(n-1)
	path.Start(point(0, mid-samples[0]*half))
	for i := 1; i < n; i++ {
		path.Add1(point(float64(i)*step, mid-samples[i]*half))
	}
	return path
}

func point(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}
