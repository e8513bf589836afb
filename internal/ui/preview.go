package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// PreviewConfig holds configuration for the video preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a sensible default preview size
// Using 72x20 1.8:1 (slightly wider than 16:9 but very close)
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  72,
		Height: 20,
	}
}

// DownsampleFrame scales a full-resolution frame down to one colour per
// terminal cell. The result is a copy, so the frame may be reused afterwards.
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	if config.Width <= 0 || config.Height <= 0 {
		return nil
	}

	small := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	preview := make([][]color.RGBA, config.Height)
	for row := range preview {
		preview[row] = make([]color.RGBA, config.Width)
		for col := range preview[row] {
			c := small.RGBAAt(col, row)
			c.A = 255
			preview[row][col] = c
		}
	}
	return preview
}

// RenderPreview converts an RGB preview grid to a string representation
// using ANSI 24-bit true color escape codes
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var b strings.Builder
	border := strings.Repeat("─", len(preview[0]))

	b.WriteString("  Video Preview:\n")
	b.WriteString("  ┌" + border + "┐\n")

	for _, row := range preview {
		b.WriteString("  │")
		for _, pixel := range row {
			// \x1b[48;2;R;G;Bm sets a 24-bit background colour
			fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		b.WriteString("│\n")
	}

	b.WriteString("  └" + border + "┘\n")

	return b.String()
}

// WindowLevels reduces a sample window to width column peaks in [0, 1] for
// the live waveform strip.
func WindowLevels(samples []float64, width int) []float64 {
	if len(samples) == 0 || width <= 0 {
		return nil
	}

	levels := make([]float64, width)
	for col := range levels {
		start := col * len(samples) / width
		end := (col + 1) * len(samples) / width
		if end <= start {
			end = start + 1
		}
		var peak float64
		for _, s := range samples[start:min(end, len(samples))] {
			if s < 0 {
				s = -s
			}
			peak = max(peak, s)
		}
		levels[col] = min(peak, 1)
	}
	return levels
}
