package blend

import (
	"fmt"
	"image"
)

// Grayscale writes the luma of src into every colour channel of dst. dst may
// be src. The weights match color.GrayModel (ITU-R BT.601).
func Grayscale(dst, src *image.RGBA) error {
	size := dst.Rect.Size()
	if src.Rect.Size() != size {
		return fmt.Errorf("%w: dst %v, src %v", ErrShapeMismatch, size, src.Rect.Size())
	}

	for y := 0; y < size.Y; y++ {
		srcOff := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		dstOff := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		for x := 0; x < size.X; x++ {
			s := src.Pix[srcOff+x*4 : srcOff+x*4+3 : srcOff+x*4+3]
			r, g, b := uint32(s[0])*0x101, uint32(s[1])*0x101, uint32(s[2])*0x101
			luma := uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)

			d := dst.Pix[dstOff+x*4 : dstOff+x*4+4 : dstOff+x*4+4]
			d[0], d[1], d[2], d[3] = luma, luma, luma, 255
		}
	}
	return nil
}
