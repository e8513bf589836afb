// Package blend implements the per-pixel compositing operators used to merge
// the background and overlay layers.
package blend

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	vecmath "github.com/cwbudde/algo-vecmath"
)

var (
	// ErrShapeMismatch is returned when two operands do not have identical
	// dimensions.
	ErrShapeMismatch = errors.New("blend: operand shapes differ")

	// ErrUnknownMode is returned by Lookup for unregistered identifiers.
	ErrUnknownMode = errors.New("unknown blend mode")
)

// Func combines one row of normalized background and foreground channel
// values into dst. All slices have equal length and hold values in [0, 1].
// Implementations must not keep references to the slices.
type Func func(dst, bg, fg []float64)

var registry = map[string]Func{
	"multiply": Multiply,
	"overlay":  Overlay,
}

// Lookup resolves a blend mode identifier.
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownMode, name, Names())
	}
	return fn, nil
}

// Validate reports whether name is a registered blend mode.
func Validate(name string) error {
	_, err := Lookup(name)
	return err
}

// Names returns the registered identifiers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Multiply darkens: result = bg * fg. White foreground is the identity.
func Multiply(dst, bg, fg []float64) {
	vecmath.MulBlock(dst, bg, fg)
}

// Overlay multiplies dark foreground values and screens light ones.
// A foreground of exactly 0.5 leaves the background unchanged.
func Overlay(dst, bg, fg []float64) {
	for i := range dst {
		b, f := bg[i], fg[i]
		if f < 0.5 {
			dst[i] = 2 * b * f
		} else {
			dst[i] = 1 - 2*(1-b)*(1-f)
		}
	}
}

// Apply runs fn over the RGB channels of bg and fg and writes the 8-bit
// result to dst. dst may alias bg or fg. The alpha channel of dst is set
// opaque.
func Apply(fn Func, dst, bg, fg *image.RGBA) error {
	size := dst.Rect.Size()
	if bg.Rect.Size() != size || fg.Rect.Size() != size {
		return fmt.Errorf("%w: dst %v, background %v, foreground %v",
			ErrShapeMismatch, size, bg.Rect.Size(), fg.Rect.Size())
	}

	width, height := size.X, size.Y
	n := width * 3
	bgRow := make([]float64, n)
	fgRow := make([]float64, n)
	outRow := make([]float64, n)

	for y := 0; y < height; y++ {
		bgOff := bg.PixOffset(bg.Rect.Min.X, bg.Rect.Min.Y+y)
		fgOff := fg.PixOffset(fg.Rect.Min.X, fg.Rect.Min.Y+y)
		dstOff := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)

		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				bgRow[x*3+c] = float64(bg.Pix[bgOff+x*4+c]) / 255
				fgRow[x*3+c] = float64(fg.Pix[fgOff+x*4+c]) / 255
			}
		}

		fn(outRow, bgRow, fgRow)

		for x := 0; x < width; x++ {
			p := dst.Pix[dstOff+x*4 : dstOff+x*4+4 : dstOff+x*4+4]
			p[0] = toByte(outRow[x*3])
			p[1] = toByte(outRow[x*3+1])
			p[2] = toByte(outRow[x*3+2])
			p[3] = 255
		}
	}

	return nil
}

func toByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
