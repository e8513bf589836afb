package renderer

import (
	"fmt"
	"image"

	"github.com/linuxmatters/jivewave/internal/blend"
)

// Compositor merges the background frame with the optional overlay layer.
//
// By default the background frame is the blend's background operand and the
// overlay its foreground. Swapping reverses the roles. When grayscale is on,
// whichever image ends up as the background operand is reduced to luma
// before blending.
type Compositor struct {
	rect      image.Rectangle
	overlay   *image.RGBA
	blend     blend.Func
	grayscale bool
	swap      bool
}

// NewCompositor returns a compositor for a width x height canvas. overlay may
// be nil, in which case fn, grayscale and swap are ignored.
func NewCompositor(width, height int, overlay *image.RGBA, fn blend.Func, grayscale, swap bool) (*Compositor, error) {
	rect := image.Rect(0, 0, width, height)
	c := &Compositor{rect: rect}
	if overlay == nil {
		return c, nil
	}

	if overlay.Rect.Size() != rect.Size() {
		return nil, fmt.Errorf("%w: overlay is %v, canvas is %v", blend.ErrShapeMismatch, overlay.Rect.Size(), rect.Size())
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: no blend function", blend.ErrUnknownMode)
	}

	c.blend = fn
	c.grayscale = grayscale
	c.swap = swap
	c.overlay = overlay

	// Swapped, the overlay is always the background operand, so its luma
	// conversion happens once here instead of every frame.
	if swap && grayscale {
		gray := image.NewRGBA(overlay.Rect)
		if err := blend.Grayscale(gray, overlay); err != nil {
			return nil, err
		}
		c.overlay = gray
	}

	return c, nil
}

// HasOverlay reports whether frames are blended with an overlay.
func (c *Compositor) HasOverlay() bool {
	return c.overlay != nil
}

// Composite writes the merged layers for background frame bg into dst. bg is
// only read.
func (c *Compositor) Composite(dst, bg *image.RGBA) error {
	if dst.Rect.Size() != c.rect.Size() || bg.Rect.Size() != c.rect.Size() {
		return fmt.Errorf("%w: canvas %v, frame %v, background %v",
			blend.ErrShapeMismatch, c.rect.Size(), dst.Rect.Size(), bg.Rect.Size())
	}

	if c.overlay == nil {
		copyPixels(dst, bg)
		return nil
	}

	if c.swap {
		return blend.Apply(c.blend, dst, c.overlay, bg)
	}

	back := bg
	if c.grayscale {
		if err := blend.Grayscale(dst, bg); err != nil {
			return err
		}
		back = dst
	}
	return blend.Apply(c.blend, dst, back, c.overlay)
}

func copyPixels(dst, src *image.RGBA) {
	if dst.Stride == src.Stride && len(dst.Pix) == len(src.Pix) {
		copy(dst.Pix, src.Pix)
		return
	}
	rowLen := dst.Rect.Dx() * 4
	for y := 0; y < dst.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[y*src.Stride:y*src.Stride+rowLen])
	}
}
