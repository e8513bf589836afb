package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes an image file and scales it to width x height.
func LoadImage(filename string, width, height int) (*image.RGBA, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrMediaLoad, filename, err)
	}

	rgba := Resize(img, width, height)
	opaque(rgba)
	return rgba, nil
}

// Resize returns img scaled to width x height as RGBA. Sizes that already
// match are copied without resampling.
func Resize(img image.Image, width, height int) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))

	if bounds.Dx() != width || bounds.Dy() != height {
		draw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
	} else {
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return rgba
}

// opaque flattens transparency onto black. RGBA is premultiplied, so raising
// alpha is enough.
func opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
}

// StaticImage is a Source returning the same frame for every t.
type StaticImage struct {
	img *image.RGBA
}

// NewStaticImage wraps an already scaled image.
func NewStaticImage(img *image.RGBA) *StaticImage {
	return &StaticImage{img: img}
}

// FrameAt returns the image. The buffer is shared between calls.
func (s *StaticImage) FrameAt(float64) (*image.RGBA, error) {
	return s.img, nil
}

// Close is a no-op.
func (s *StaticImage) Close() error {
	return nil
}
