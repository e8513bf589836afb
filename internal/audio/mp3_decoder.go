package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// mp3FrameBytes is one interleaved 16-bit stereo frame; go-mp3 always
// decodes to that layout regardless of the source channel count.
const mp3FrameBytes = 4

// MP3Decoder reads MP3 files through go-mp3.
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	numSamples int64
	buf        []byte
}

// NewMP3Decoder opens filename for decoding.
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	// Length is -1 when the stream length is unknown
	var numSamples int64
	if length := decoder.Length(); length > 0 {
		numSamples = length / mp3FrameBytes
	}

	return &MP3Decoder{decoder: decoder, file: f, numSamples: numSamples}, nil
}

// ReadChunk returns up to numSamples mono samples, the mean of left and right.
func (d *MP3Decoder) ReadChunk(numSamples int) ([]float64, error) {
	want := numSamples * mp3FrameBytes
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}
	d.buf = d.buf[:want]

	// ReadFull keeps reads aligned to whole stereo frames
	n, err := io.ReadFull(d.decoder, d.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}
	frames := n / mp3FrameBytes
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]float64, frames)
	for i := range samples {
		frame := d.buf[i*mp3FrameBytes:]
		left := int16(binary.LittleEndian.Uint16(frame))
		right := int16(binary.LittleEndian.Uint16(frame[2:]))
		samples[i] = (float64(left) + float64(right)) / 65536.0
	}
	return samples, nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.decoder.SampleRate()
}

// NumSamples returns the number of stereo frames, 0 if unknown
func (d *MP3Decoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels is always 2, see mp3FrameBytes.
func (d *MP3Decoder) NumChannels() int {
	return 2
}

// Close releases the file.
func (d *MP3Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
