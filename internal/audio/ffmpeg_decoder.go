package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ffmpegSampleRate is the rate FFmpegDecoder asks ffmpeg to resample to.
const ffmpegSampleRate = 48000

// FFmpegDecoder implements AudioDecoder by running ffmpeg as a subprocess and
// reading mono signed 16-bit PCM from its stdout. It covers every format
// ffmpeg can read (OGG, AAC, M4A, Opus, ...).
type FFmpegDecoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr bytes.Buffer
}

// NewFFmpegDecoder starts ffmpeg for filename.
func NewFFmpegDecoder(filename string) (*FFmpegDecoder, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	d := &FFmpegDecoder{}
	d.cmd = exec.Command(ffmpegPath,
		"-v", "error",
		"-i", filename,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", ffmpegSampleRate),
		"pipe:1",
	)
	d.cmd.Stderr = &d.stderr

	d.stdout, err = d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg pipe: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	d.reader = bufio.NewReaderSize(d.stdout, 64*1024)

	return d, nil
}

// ReadChunk reads the next chunk of samples
func (d *FFmpegDecoder) ReadChunk(numSamples int) ([]float64, error) {
	buf := make([]byte, numSamples*2)
	n, err := io.ReadFull(d.reader, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read decoded audio: %w", err)
	}

	count := n / 2
	if count == 0 {
		if waitErr := d.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, io.EOF
	}

	samples := make([]float64, count)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples, nil
}

// wait reaps the process once its output is drained and surfaces decode
// failures that only show up in the exit status.
func (d *FFmpegDecoder) wait() error {
	if d.cmd == nil {
		return nil
	}
	cmd := d.cmd
	d.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w: %s", err, bytes.TrimSpace(d.stderr.Bytes()))
	}
	return nil
}

// SampleRate returns the sample rate
func (d *FFmpegDecoder) SampleRate() int {
	return ffmpegSampleRate
}

// NumSamples is unknown until the stream is drained
func (d *FFmpegDecoder) NumSamples() int64 {
	return 0
}

// NumChannels returns 1; ffmpeg downmixes before the samples reach us
func (d *FFmpegDecoder) NumChannels() int {
	return 1
}

// Close stops ffmpeg if it is still running
func (d *FFmpegDecoder) Close() error {
	if d.cmd == nil {
		return nil
	}
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()
	d.cmd = nil
	return nil
}
