package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder reads integer PCM WAV files through go-audio/wav.
type WAVDecoder struct {
	decoder *wav.Decoder
	file    *os.File

	sampleRate int
	channels   int
	numSamples int64
	scale      float64

	// Interleaved read buffer, grown on demand and reused across reads
	pcm *audio.IntBuffer
}

// NewWAVDecoder opens filename and positions the decoder at the PCM chunk.
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, errors.New("invalid WAV file")
	}
	if err := d.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	frameBytes := int64(d.BitDepth/8) * int64(d.NumChans)
	if frameBytes == 0 {
		f.Close()
		return nil, fmt.Errorf("unsupported WAV format: %d-bit, %d channels", d.BitDepth, d.NumChans)
	}

	channels := int(d.NumChans)
	return &WAVDecoder{
		decoder:    d,
		file:       f,
		sampleRate: int(d.SampleRate),
		channels:   channels,
		numSamples: int64(d.PCMLen()) / frameBytes,
		scale:      1 / float64(audio.IntMaxSignedValue(int(d.BitDepth))),
		pcm: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: int(d.SampleRate)},
		},
	}, nil
}

// ReadChunk returns up to numSamples mono samples, averaging channels.
func (d *WAVDecoder) ReadChunk(numSamples int) ([]float64, error) {
	want := numSamples * d.channels
	if cap(d.pcm.Data) < want {
		d.pcm.Data = make([]int, want)
	}
	d.pcm.Data = d.pcm.Data[:want]

	n, err := d.decoder.PCMBuffer(d.pcm)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	frames := n / d.channels
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]float64, frames)
	for i := range samples {
		var sum int
		for _, v := range d.pcm.Data[i*d.channels : (i+1)*d.channels] {
			sum += v
		}
		samples[i] = float64(sum) * d.scale / float64(d.channels)
	}
	return samples, nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of samples per channel
func (d *WAVDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.channels
}

// Close releases the file.
func (d *WAVDecoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
