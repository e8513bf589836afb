package media

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layer.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIsVideo(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"bg.mp4", true},
		{"BG.MOV", true},
		{"loop.webm", true},
		{"anim.gif", true},
		{"clip.mkv", true},
		{"still.png", false},
		{"photo.jpeg", false},
		{"noext", false},
		{"dir.mp4/file.png", false},
	}

	for _, tt := range tests {
		if got := IsVideo(tt.path); got != tt.want {
			t.Errorf("IsVideo(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadImageScales(t *testing.T) {
	path := writePNG(t, solid(64, 32, color.NRGBA{R: 200, G: 100, B: 50, A: 255}))

	img, err := LoadImage(path, 128, 72)
	if err != nil {
		t.Fatalf("LoadImage returned error: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 128, 72) {
		t.Fatalf("bounds = %v, want 128x72", img.Bounds())
	}

	got := img.RGBAAt(64, 36)
	want := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	if got != want {
		t.Errorf("center pixel = %v, want %v", got, want)
	}
}

func TestLoadImageSameSizeCopies(t *testing.T) {
	src := solid(16, 9, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(5, 5, color.NRGBA{R: 250, G: 0, B: 0, A: 255})
	path := writePNG(t, src)

	img, err := LoadImage(path, 16, 9)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 250, A: 255}) {
		t.Errorf("pixel (5,5) = %v, want exact copy", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("pixel (0,0) = %v, want exact copy", got)
	}
}

func TestLoadImageFlattensTransparency(t *testing.T) {
	path := writePNG(t, solid(8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 0}))

	img, err := LoadImage(path, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		px := img.Pix[i : i+4]
		if px[0] != 0 || px[1] != 0 || px[2] != 0 || px[3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, px)
		}
	}
}

func TestLoadImageJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, solid(32, 32, color.NRGBA{R: 128, G: 128, B: 128, A: 255}), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := LoadImage(path, 10, 10)
	if err != nil {
		t.Fatalf("LoadImage(jpeg) returned error: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("bounds = %v, want 10x10", img.Bounds())
	}
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.png")},
		{"undecodable file", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadImage(tt.path, 10, 10)
			if !errors.Is(err, ErrMediaLoad) {
				t.Errorf("error = %v, want ErrMediaLoad", err)
			}
		})
	}
}

func TestStaticImageReturnsSameFrame(t *testing.T) {
	path := writePNG(t, solid(4, 4, color.NRGBA{R: 9, A: 255}))

	src, err := Open(path, 4, 4, 30, 10)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*StaticImage); !ok {
		t.Fatalf("Open(png) = %T, want *StaticImage", src)
	}

	first, err := src.FrameAt(0)
	if err != nil {
		t.Fatal(err)
	}
	later, err := src.FrameAt(9.5)
	if err != nil {
		t.Fatal(err)
	}
	if first != later {
		t.Error("static image should return the same buffer for every t")
	}
}

func TestOpenMissingVideo(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp4"), 16, 16, 30, 1)
	if !errors.Is(err, ErrMediaLoad) {
		t.Errorf("error = %v, want ErrMediaLoad", err)
	}
}

// makeTestVideo renders one second of solid red with ffmpeg's lavfi source.
func makeTestVideo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "red.mp4")
	cmd := exec.Command("ffmpeg", "-v", "error", "-y",
		"-f", "lavfi", "-i", "color=c=red:s=64x48:r=10",
		"-t", "1", "-pix_fmt", "yuv420p", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg could not create test video: %v: %s", err, out)
	}
	return path
}

func TestVideoLoop(t *testing.T) {
	path := makeTestVideo(t)

	src, err := Open(path, 32, 24, 10, 3)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer src.Close()

	loop, ok := src.(*VideoLoop)
	if !ok {
		t.Fatalf("Open(mp4) = %T, want *VideoLoop", src)
	}

	first, err := loop.FrameAt(0)
	if err != nil {
		t.Fatalf("FrameAt(0) returned error: %v", err)
	}
	if first.Bounds() != image.Rect(0, 0, 32, 24) {
		t.Errorf("frame bounds = %v, want 32x24", first.Bounds())
	}
	px := first.RGBAAt(16, 12)
	if px.R < 200 || px.G > 60 || px.B > 60 || px.A != 255 {
		t.Errorf("pixel = %v, want opaque red", px)
	}

	// Past the one second source, so this frame comes from a loop iteration.
	later, err := loop.FrameAt(2.5)
	if err != nil {
		t.Fatalf("FrameAt(2.5) returned error: %v", err)
	}
	if later == first {
		t.Error("each decoded frame should own its buffer")
	}
	if px := later.RGBAAt(16, 12); px.R < 200 {
		t.Errorf("looped pixel = %v, want red", px)
	}

	if _, err := loop.FrameAt(1); !errors.Is(err, ErrMediaLoad) {
		t.Errorf("FrameAt backwards error = %v, want ErrMediaLoad", err)
	}
}

func TestVideoLoopRepeatsLastFrameAtEnd(t *testing.T) {
	path := makeTestVideo(t)

	loop, err := NewVideoLoop(path, 16, 16, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Close()

	end, err := loop.FrameAt(0.5)
	if err != nil {
		t.Fatal(err)
	}
	beyond, err := loop.FrameAt(5)
	if err != nil {
		t.Fatalf("FrameAt past decoded range returned error: %v", err)
	}
	if beyond == nil || beyond.Bounds() != end.Bounds() {
		t.Error("expected the final frame to repeat")
	}
}
