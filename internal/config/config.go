package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrConfiguration marks every error caused by bad user input. It is always
// reported before any media is loaded.
var ErrConfiguration = errors.New("configuration error")

// Video settings
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30
)

// Waveform settings
const (
	DefaultWaveformHeight = 100
	DefaultColor          = "blue"
	DefaultBlendMode      = "multiply"
	DefaultGlowScale      = 1.0

	// MainStrokeWidth is the width in pixels of the opaque waveform line drawn
	// on top of the glow stack.
	MainStrokeWidth = 2.0
)

// GlowLayer is one (width, alpha) entry of the glow stack.
type GlowLayer struct {
	Width float64
	Alpha float64
}

// DefaultGlowLayers is drawn in order: wide and faint first, narrow and
// strong last.
var DefaultGlowLayers = []GlowLayer{
	{Width: 12, Alpha: 0.05},
	{Width: 9, Alpha: 0.1},
	{Width: 6, Alpha: 0.2},
	{Width: 4, Alpha: 0.3},
}

// Options holds raw, unvalidated values as they arrive from the command line.
type Options struct {
	FPS            int
	FrameSize      string
	WaveformHeight int
	WaveformColor  string
	GlowColor      string
	GlowScale      float64
	OverlayImage   string
	BlendMode      string
	DisableBW      bool
	SwapOverlay    bool
	Workers        int
}

// RenderConfig is the validated, immutable configuration for one render.
// Fields are unexported so the value cannot change after New returns.
type RenderConfig struct {
	fps            int
	width          int
	height         int
	waveformHeight int
	waveformColor  color.RGBA
	glowColor      color.RGBA
	glowScale      float64
	overlayPath    string
	blendMode      string
	disableBW      bool
	swap           bool
	workers        int
}

// BlendResolver reports whether a blend mode identifier is known. It is
// supplied by the caller so that config stays free of the blend package.
type BlendResolver func(name string) error

// New validates opts and builds a RenderConfig. All returned errors wrap
// ErrConfiguration.
func New(opts Options, resolveBlend BlendResolver) (RenderConfig, error) {
	var cfg RenderConfig

	if opts.FPS <= 0 {
		return cfg, fmt.Errorf("%w: fps must be positive, got %d", ErrConfiguration, opts.FPS)
	}

	frameSize := opts.FrameSize
	if frameSize == "" {
		frameSize = fmt.Sprintf("%dx%d", DefaultWidth, DefaultHeight)
	}
	width, height, err := ParseFrameSize(frameSize)
	if err != nil {
		return cfg, err
	}

	if opts.WaveformHeight <= 0 {
		return cfg, fmt.Errorf("%w: waveform height must be positive, got %d", ErrConfiguration, opts.WaveformHeight)
	}

	waveformColor, err := ParseColor(defaultString(opts.WaveformColor, DefaultColor))
	if err != nil {
		return cfg, err
	}
	glowColor, err := ParseColor(defaultString(opts.GlowColor, DefaultColor))
	if err != nil {
		return cfg, err
	}

	if opts.GlowScale < 0 {
		return cfg, fmt.Errorf("%w: glow scale must not be negative, got %g", ErrConfiguration, opts.GlowScale)
	}

	if opts.Workers < 0 {
		return cfg, fmt.Errorf("%w: workers must not be negative, got %d", ErrConfiguration, opts.Workers)
	}

	blendMode := defaultString(opts.BlendMode, DefaultBlendMode)
	if resolveBlend != nil {
		if err := resolveBlend(blendMode); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	return RenderConfig{
		fps:            opts.FPS,
		width:          width,
		height:         height,
		waveformHeight: opts.WaveformHeight,
		waveformColor:  waveformColor,
		glowColor:      glowColor,
		glowScale:      opts.GlowScale,
		overlayPath:    opts.OverlayImage,
		blendMode:      blendMode,
		disableBW:      opts.DisableBW,
		swap:           opts.SwapOverlay,
		workers:        opts.Workers,
	}, nil
}

// Warnings lists flags that were given but have no effect with this
// configuration.
func (c RenderConfig) Warnings() []string {
	var warnings []string
	if !c.HasOverlay() {
		if c.disableBW {
			warnings = append(warnings, "--disable_bw has no effect without --overlay_image")
		}
		if c.swap {
			warnings = append(warnings, "--swap_overlay_layers has no effect without --overlay_image")
		}
	}
	return warnings
}

func (c RenderConfig) FPS() int                  { return c.fps }
func (c RenderConfig) Width() int                { return c.width }
func (c RenderConfig) Height() int               { return c.height }
func (c RenderConfig) WaveformHeight() int       { return c.waveformHeight }
func (c RenderConfig) WaveformColor() color.RGBA { return c.waveformColor }
func (c RenderConfig) GlowColor() color.RGBA     { return c.glowColor }
func (c RenderConfig) GlowScale() float64        { return c.glowScale }
func (c RenderConfig) OverlayPath() string       { return c.overlayPath }
func (c RenderConfig) BlendMode() string         { return c.blendMode }
func (c RenderConfig) Workers() int              { return c.workers }
func (c RenderConfig) HasOverlay() bool          { return c.overlayPath != "" }

// Grayscale reports whether the blend background operand is converted to
// luma. The flag only exists together with an overlay image.
func (c RenderConfig) Grayscale() bool {
	return c.HasOverlay() && !c.disableBW
}

// SwapLayers reports whether the overlay becomes the blend background.
func (c RenderConfig) SwapLayers() bool {
	return c.HasOverlay() && c.swap
}

// ParseFrameSize parses a WIDTHxHEIGHT string such as "1280x720".
func ParseFrameSize(s string) (int, int, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: invalid frame size %q, expected WIDTHxHEIGHT", ErrConfiguration, s)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid frame width in %q", ErrConfiguration, s)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid frame height in %q", ErrConfiguration, s)
	}

	return width, height, nil
}

// ParseColor accepts an SVG/CSS colour name ("blue", "DarkOrange") or a hex
// colour ("#A40000", "F8B31D").
func ParseColor(s string) (color.RGBA, error) {
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}

	r, g, b, err := ParseHexColor(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: unknown colour %q", ErrConfiguration, s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseHexColor parses "RRGGBB" or "#RRGGBB".
func ParseHexColor(s string) (uint8, uint8, uint8, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: hex colour %q must have 6 digits", ErrConfiguration, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid hex colour %q", ErrConfiguration, s)
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
