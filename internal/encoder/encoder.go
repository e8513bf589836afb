package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Config holds the encoder configuration
type Config struct {
	OutputPath string      // Path to output MP4 file
	AudioPath  string      // Source audio muxed into the output
	Width      int         // Video width in pixels
	Height     int         // Video height in pixels
	Framerate  int         // Frames per second
	HWAccel    HWAccelType // Requested hardware encoder, empty for software
}

// Encoder pipes raw RGBA frames into an ffmpeg process that encodes H.264,
// encodes the source audio to AAC and muxes both into the output file.
type Encoder struct {
	config    Config
	hwEncoder *HWEncoder

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr lockedBuffer

	frameSize  int
	frames     int
	encodeTime time.Duration
	done       bool
}

// New creates a new encoder instance
func New(config Config) (*Encoder, error) {
	// Validate configuration
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", config.Width, config.Height)
	}
	if config.Framerate <= 0 {
		return nil, fmt.Errorf("invalid framerate: %d", config.Framerate)
	}
	if config.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if config.AudioPath == "" {
		return nil, fmt.Errorf("audio path cannot be empty")
	}
	if config.HWAccel == "" {
		config.HWAccel = HWAccelNone
	}
	if _, ok := ParseHWAccel(string(config.HWAccel)); !ok {
		return nil, fmt.Errorf("unknown hardware encoder %q", config.HWAccel)
	}

	return &Encoder{
		config:    config,
		frameSize: config.Width * config.Height * 4,
	}, nil
}

// Initialize selects the video encoder and starts ffmpeg
func (e *Encoder) Initialize() error {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	e.hwEncoder = SelectBestEncoder(e.config.HWAccel)

	e.cmd = exec.Command(ffmpegPath, e.args()...)
	e.cmd.Stderr = &e.stderr

	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg pipe: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return nil
}

// args builds the ffmpeg command line for the selected encoder.
func (e *Encoder) args() []string {
	var accel HWAccelType
	if e.hwEncoder != nil {
		accel = e.hwEncoder.Type
	}
	global, filter := deviceArgs(accel)

	args := append([]string{"-y", "-hide_banner", "-v", "error"}, global...)
	args = append(args,
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.config.Width, e.config.Height),
		"-framerate", strconv.Itoa(e.config.Framerate),
		"-i", "pipe:0",
		"-i", e.config.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
	)

	if e.hwEncoder != nil {
		args = append(args, "-c:v", e.hwEncoder.Name)
	} else {
		args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-crf", "20")
	}

	return append(args,
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		"-shortest",
		e.config.OutputPath,
	)
}

// VideoCodec describes the encoder in use for display.
func (e *Encoder) VideoCodec() string {
	name := "libx264"
	if e.hwEncoder != nil {
		name = e.hwEncoder.Name
	}
	return fmt.Sprintf("H.264 %dx%d (%s)", e.config.Width, e.config.Height, name)
}

// HWEncoder returns the hardware encoder in use, or nil for software.
func (e *Encoder) HWEncoder() *HWEncoder {
	return e.hwEncoder
}

// WriteFrame encodes one frame. It implements the sequencer's frame sink.
func (e *Encoder) WriteFrame(img *image.RGBA) error {
	if img.Rect.Dx() != e.config.Width || img.Rect.Dy() != e.config.Height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d",
			img.Rect.Dx(), img.Rect.Dy(), e.config.Width, e.config.Height)
	}

	rowLen := e.config.Width * 4
	if img.Stride == rowLen {
		return e.WriteFrameRGBA(img.Pix[:e.frameSize])
	}

	packed := make([]byte, 0, e.frameSize)
	for y := 0; y < e.config.Height; y++ {
		packed = append(packed, img.Pix[y*img.Stride:y*img.Stride+rowLen]...)
	}
	return e.WriteFrameRGBA(packed)
}

// WriteFrameRGBA writes one tightly packed RGBA frame.
func (e *Encoder) WriteFrameRGBA(pix []byte) error {
	if e.stdin == nil || e.done {
		return errors.New("encoder not running")
	}
	if len(pix) != e.frameSize {
		return fmt.Errorf("frame has %d bytes, want %d", len(pix), e.frameSize)
	}

	start := time.Now()
	if _, err := e.stdin.Write(pix); err != nil {
		return fmt.Errorf("ffmpeg rejected frame %d: %w%s", e.frames, err, e.stderrSuffix())
	}
	e.encodeTime += time.Since(start)
	e.frames++
	return nil
}

// FramesWritten returns the number of frames accepted so far.
func (e *Encoder) FramesWritten() int {
	return e.frames
}

// EncodeTime returns the time spent handing frames to ffmpeg.
func (e *Encoder) EncodeTime() time.Duration {
	return e.encodeTime
}

// Close flushes and finalises the output. If ffmpeg fails, the partial
// output file is removed.
func (e *Encoder) Close() error {
	if e.cmd == nil || e.done {
		return nil
	}
	e.done = true

	closeErr := e.stdin.Close()
	waitErr := e.cmd.Wait()
	if waitErr != nil {
		os.Remove(e.config.OutputPath)
		return fmt.Errorf("ffmpeg encode failed: %w%s", waitErr, e.stderrSuffix())
	}
	if closeErr != nil {
		os.Remove(e.config.OutputPath)
		return fmt.Errorf("closing ffmpeg input: %w", closeErr)
	}
	return nil
}

// Abort stops ffmpeg and removes the partial output file.
func (e *Encoder) Abort() {
	if e.cmd == nil || e.done {
		return
	}
	e.done = true

	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.stdin.Close()
	_ = e.cmd.Wait()
	os.Remove(e.config.OutputPath)
}

func (e *Encoder) stderrSuffix() string {
	msg := bytes.TrimSpace(e.stderr.Bytes())
	if len(msg) == 0 {
		return ""
	}
	return ": " + string(msg)
}

// lockedBuffer collects ffmpeg's stderr. exec copies into it from its own
// goroutine while a failed write may already be reading it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
