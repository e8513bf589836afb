package media

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
)

// VideoLoop is a Source backed by an ffmpeg process that loops a video file
// indefinitely, scaled to the canvas and resampled to the output frame rate.
// Frames are read strictly forward.
type VideoLoop struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	reader    *bufio.Reader
	stderr    bytes.Buffer
	width     int
	height    int
	fps       int
	frameSize int

	// index of last, -1 before the first read
	index int
	last  *image.RGBA
	eof   bool
}

// NewVideoLoop starts ffmpeg for filename. Only duration seconds of looped
// video are decoded.
func NewVideoLoop(filename string, width, height, fps int, duration float64) (*VideoLoop, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaLoad, err)
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH: %v", ErrMediaLoad, err)
	}

	// One spare frame so rounding never leaves the final tick without input.
	limit := duration + 1/float64(fps)

	v := &VideoLoop{
		width:     width,
		height:    height,
		fps:       fps,
		frameSize: width * height * 4,
		index:     -1,
	}
	v.cmd = exec.Command(ffmpegPath,
		"-v", "error",
		"-stream_loop", "-1",
		"-i", filename,
		"-t", strconv.FormatFloat(limit, 'f', 6, 64),
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", width, height, fps),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	v.cmd.Stderr = &v.stderr

	v.stdout, err = v.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating ffmpeg pipe: %v", ErrMediaLoad, err)
	}
	if err := v.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", ErrMediaLoad, err)
	}
	v.reader = bufio.NewReaderSize(v.stdout, v.frameSize)

	return v, nil
}

// FrameAt returns the video frame at index round(t * fps). Each decoded frame
// gets its own buffer, so frames handed out earlier stay valid. Once the
// stream is exhausted the last frame repeats.
func (v *VideoLoop) FrameAt(t float64) (*image.RGBA, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return nil, fmt.Errorf("%w: invalid frame time %g", ErrMediaLoad, t)
	}
	want := int(math.Round(t * float64(v.fps)))
	if want < v.index {
		return nil, fmt.Errorf("%w: video frame %d requested after frame %d", ErrMediaLoad, want, v.index)
	}

	for v.index < want && !v.eof {
		img, err := v.readFrame()
		if errors.Is(err, io.EOF) {
			v.eof = true
			break
		}
		if err != nil {
			return nil, err
		}
		v.last = img
		v.index++
	}

	if v.last == nil {
		return nil, fmt.Errorf("%w: video produced no frames", ErrMediaLoad)
	}
	return v.last, nil
}

func (v *VideoLoop) readFrame() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	_, err := io.ReadFull(v.reader, img.Pix)
	if err == nil {
		opaque(img)
		return img, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if waitErr := v.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, io.EOF
	}
	return nil, fmt.Errorf("%w: reading video frame: %v", ErrMediaLoad, err)
}

func (v *VideoLoop) wait() error {
	if v.cmd == nil {
		return nil
	}
	cmd := v.cmd
	v.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: ffmpeg video decode: %v: %s", ErrMediaLoad, err, bytes.TrimSpace(v.stderr.Bytes()))
	}
	return nil
}

// Close stops ffmpeg if it is still running.
func (v *VideoLoop) Close() error {
	if v.cmd == nil {
		return nil
	}
	if v.cmd.Process != nil {
		_ = v.cmd.Process.Kill()
	}
	_ = v.cmd.Wait()
	v.cmd = nil
	return nil
}
