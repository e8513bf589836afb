package renderer

import (
	"fmt"

	"github.com/linuxmatters/jivewave/internal/config"
)

// GlowProfile is the ordered stack of translucent strokes drawn beneath the
// waveform line. Layers run from widest and faintest to narrowest.
type GlowProfile struct {
	layers []config.GlowLayer
}

// NewGlowProfile validates layers and copies them into a profile. Widths must
// be positive and non-increasing, alphas within [0, 1].
func NewGlowProfile(layers []config.GlowLayer) (GlowProfile, error) {
	out := make([]config.GlowLayer, len(layers))
	for i, l := range layers {
		if !(l.Width > 0) {
			return GlowProfile{}, fmt.Errorf("%w: glow layer %d width must be positive, got %g", config.ErrConfiguration, i, l.Width)
		}
		if !(l.Alpha >= 0 && l.Alpha <= 1) {
			return GlowProfile{}, fmt.Errorf("%w: glow layer %d alpha must be within [0, 1], got %g", config.ErrConfiguration, i, l.Alpha)
		}
		if i > 0 && l.Width > layers[i-1].Width {
			return GlowProfile{}, fmt.Errorf("%w: glow layer %d is wider than the layer before it", config.ErrConfiguration, i)
		}
		out[i] = l
	}
	return GlowProfile{layers: out}, nil
}

// DefaultGlowProfile returns config.DefaultGlowLayers as a profile.
func DefaultGlowProfile() GlowProfile {
	p, err := NewGlowProfile(config.DefaultGlowLayers)
	if err != nil {
		panic(err)
	}
	return p
}

// Scale multiplies every alpha by f, clamping to [0, 1]. Widths and order are
// untouched.
func (p GlowProfile) Scale(f float64) (GlowProfile, error) {
	if !(f >= 0) {
		return GlowProfile{}, fmt.Errorf("%w: glow scale must not be negative, got %g", config.ErrConfiguration, f)
	}

	out := make([]config.GlowLayer, len(p.layers))
	for i, l := range p.layers {
		out[i] = config.GlowLayer{Width: l.Width, Alpha: min(1, l.Alpha*f)}
	}
	return GlowProfile{layers: out}, nil
}

// Layers returns a copy of the layers in draw order.
func (p GlowProfile) Layers() []config.GlowLayer {
	return append([]config.GlowLayer(nil), p.layers...)
}

// Len returns the number of glow layers.
func (p GlowProfile) Len() int { return len(p.layers) }
