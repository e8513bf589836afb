package blend

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// gradientImage fills every channel combination so identity checks cover the
// full 8-bit range.
func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x),
				G: uint8(y),
				B: uint8((x * 7) + (y * 3)),
				A: 255,
			})
		}
	}
	return img
}

func uniformImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func samples() []float64 {
	s := make([]float64, 256)
	for i := range s {
		s[i] = float64(i) / 255
	}
	return s
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"multiply", "overlay"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) returned error: %v", name, err)
		}
	}

	for _, name := range []string{"", "Multiply", "screen", "dodge"} {
		_, err := Lookup(name)
		if !errors.Is(err, ErrUnknownMode) {
			t.Errorf("Lookup(%q) error = %v, want ErrUnknownMode", name, err)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "multiply" || names[1] != "overlay" {
		t.Errorf("Names() = %v, want [multiply overlay]", names)
	}
}

func TestMultiply_WhiteIsIdentity(t *testing.T) {
	bg := samples()
	dst := make([]float64, len(bg))
	Multiply(dst, bg, filled(len(bg), 1))

	for i := range bg {
		if dst[i] != bg[i] {
			t.Fatalf("Multiply(%g, 1) = %g", bg[i], dst[i])
		}
	}
}

func TestMultiply_Values(t *testing.T) {
	dst := make([]float64, 3)
	Multiply(dst, []float64{0.5, 0.2, 1}, []float64{0.5, 0, 0.25})
	want := []float64{0.25, 0, 0.25}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-12 {
			t.Errorf("dst[%d] = %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestOverlay_MidGrayIsIdentity(t *testing.T) {
	bg := samples()
	dst := make([]float64, len(bg))
	Overlay(dst, bg, filled(len(bg), 0.5))

	for i := range bg {
		if math.Abs(dst[i]-bg[i]) > 1e-12 {
			t.Fatalf("Overlay(%g, 0.5) = %g", bg[i], dst[i])
		}
	}
}

func TestOverlay_Branches(t *testing.T) {
	testCases := []struct {
		name   string
		bg, fg float64
		want   float64
	}{
		{"dark foreground multiplies", 0.5, 0.25, 0.25},
		{"black foreground", 0.8, 0, 0},
		{"light foreground screens", 0.5, 0.75, 0.75},
		{"white foreground", 0.2, 1, 1},
		{"black background stays black below midpoint", 0, 0.4, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dst := make([]float64, 1)
			Overlay(dst, []float64{tc.bg}, []float64{tc.fg})
			if math.Abs(dst[0]-tc.want) > 1e-12 {
				t.Errorf("Overlay(%g, %g) = %g, want %g", tc.bg, tc.fg, dst[0], tc.want)
			}
		})
	}
}

func TestApply_MultiplyWhiteKeepsImage(t *testing.T) {
	bg := gradientImage(256, 16)
	fg := uniformImage(256, 16, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	dst := image.NewRGBA(bg.Rect)

	if err := Apply(Multiply, dst, bg, fg); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	for i := range bg.Pix {
		if dst.Pix[i] != bg.Pix[i] {
			t.Fatalf("pixel byte %d = %d, want %d", i, dst.Pix[i], bg.Pix[i])
		}
	}
}

func TestApply_OverlayMidGrayWithinOneStep(t *testing.T) {
	// 8-bit cannot express 0.5 exactly; 128 sits one half-step above it.
	bg := gradientImage(256, 16)
	fg := uniformImage(256, 16, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	dst := image.NewRGBA(bg.Rect)

	if err := Apply(Overlay, dst, bg, fg); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	for i := range bg.Pix {
		diff := int(dst.Pix[i]) - int(bg.Pix[i])
		if diff < -1 || diff > 1 {
			t.Fatalf("pixel byte %d = %d, want %d±1", i, dst.Pix[i], bg.Pix[i])
		}
	}
}

func TestApply_IsPure(t *testing.T) {
	bg := gradientImage(64, 64)
	fg := gradientImage(64, 64)
	bgCopy := append([]uint8(nil), bg.Pix...)

	first := image.NewRGBA(bg.Rect)
	second := image.NewRGBA(bg.Rect)

	for _, fn := range []Func{Multiply, Overlay} {
		if err := Apply(fn, first, bg, fg); err != nil {
			t.Fatal(err)
		}
		if err := Apply(fn, second, bg, fg); err != nil {
			t.Fatal(err)
		}
		for i := range first.Pix {
			if first.Pix[i] != second.Pix[i] {
				t.Fatalf("repeated Apply differs at byte %d", i)
			}
		}
	}

	for i := range bgCopy {
		if bg.Pix[i] != bgCopy[i] {
			t.Fatalf("Apply mutated its background operand at byte %d", i)
		}
	}
}

func TestApply_InPlace(t *testing.T) {
	bg := gradientImage(32, 8)
	want := image.NewRGBA(bg.Rect)
	fg := uniformImage(32, 8, color.RGBA{R: 64, G: 200, B: 10, A: 255})

	if err := Apply(Overlay, want, bg, fg); err != nil {
		t.Fatal(err)
	}
	if err := Apply(Overlay, bg, bg, fg); err != nil {
		t.Fatal(err)
	}
	for i := range want.Pix {
		if bg.Pix[i] != want.Pix[i] {
			t.Fatalf("in-place result differs at byte %d", i)
		}
	}
}

func TestApply_OpaqueAlpha(t *testing.T) {
	bg := uniformImage(4, 4, color.RGBA{R: 10, G: 10, B: 10, A: 0})
	fg := uniformImage(4, 4, color.RGBA{R: 10, G: 10, B: 10, A: 0})
	dst := image.NewRGBA(bg.Rect)

	if err := Apply(Multiply, dst, bg, fg); err != nil {
		t.Fatal(err)
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] != 255 {
			t.Fatalf("alpha at byte %d = %d, want 255", i, dst.Pix[i])
		}
	}
}

func TestApply_ShapeMismatch(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	testCases := []struct {
		name   string
		bg, fg *image.RGBA
	}{
		{"background too small", image.NewRGBA(image.Rect(0, 0, 5, 10)), image.NewRGBA(image.Rect(0, 0, 10, 10))},
		{"foreground too tall", image.NewRGBA(image.Rect(0, 0, 10, 10)), image.NewRGBA(image.Rect(0, 0, 10, 11))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Apply(Multiply, dst, tc.bg, tc.fg)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("Apply error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestApply_OffsetRectangles(t *testing.T) {
	// Same size at different origins is still the same shape.
	bg := uniformImage(8, 8, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	fg := image.NewRGBA(image.Rect(8, 8, 16, 16))
	for i := range fg.Pix {
		fg.Pix[i] = 255
	}
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))

	if err := Apply(Multiply, dst, bg, fg); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := dst.RGBAAt(3, 3); got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("dst(3,3) = %v", got)
	}
}

func TestGrayscale(t *testing.T) {
	src := gradientImage(64, 64)
	dst := image.NewRGBA(src.Rect)

	if err := Grayscale(dst, src); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			got := dst.RGBAAt(x, y)
			want := color.GrayModel.Convert(src.RGBAAt(x, y)).(color.Gray).Y
			if got.R != want || got.G != want || got.B != want || got.A != 255 {
				t.Fatalf("(%d,%d) = %v, want gray %d", x, y, got, want)
			}
		}
	}
}

func TestGrayscale_PrimaryWeights(t *testing.T) {
	testCases := []struct {
		name string
		in   color.RGBA
		want uint8
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"blue", color.RGBA{0, 0, 255, 255}, 29},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := uniformImage(2, 2, tc.in)
			if err := Grayscale(img, img); err != nil {
				t.Fatal(err)
			}
			if got := img.RGBAAt(1, 1).R; got != tc.want {
				t.Errorf("luma = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGrayscale_ShapeMismatch(t *testing.T) {
	err := Grayscale(image.NewRGBA(image.Rect(0, 0, 4, 4)), image.NewRGBA(image.Rect(0, 0, 4, 5)))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Grayscale error = %v, want ErrShapeMismatch", err)
	}
}

func BenchmarkApply(b *testing.B) {
	bg := gradientImage(1280, 720)
	fg := gradientImage(1280, 720)
	dst := image.NewRGBA(bg.Rect)

	for _, name := range Names() {
		fn, _ := Lookup(name)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = Apply(fn, dst, bg, fg)
			}
		})
	}
}
