package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/linuxmatters/jivewave/internal/media"
)

// readChunkSize is the number of samples requested per decoder read.
const readChunkSize = 8192

// SampleBuffer is the fully decoded mono amplitude track, normalized to
// [-1, 1]. It is immutable once loaded and safe for concurrent reads.
type SampleBuffer struct {
	samples    []float64
	sampleRate int
	channels   int
}

// NewSampleBuffer wraps already decoded samples. Values outside [-1, 1] are
// clamped. The slice is copied.
func NewSampleBuffer(samples []float64, sampleRate, channels int) *SampleBuffer {
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = clamp(s)
	}
	return &SampleBuffer{samples: data, sampleRate: sampleRate, channels: channels}
}

// Load decodes an entire audio file into memory. Errors wrap
// media.ErrMediaLoad.
func Load(filename string) (*SampleBuffer, error) {
	dec, err := NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: opening audio %s: %v", media.ErrMediaLoad, filename, err)
	}
	defer dec.Close()

	return ReadAll(dec)
}

// ReadAll drains dec into a SampleBuffer.
func ReadAll(dec AudioDecoder) (*SampleBuffer, error) {
	if dec.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", media.ErrMediaLoad, dec.SampleRate())
	}

	capacity := dec.NumSamples()
	if capacity <= 0 {
		capacity = int64(dec.SampleRate()) * 60
	}
	samples := make([]float64, 0, capacity)

	for {
		chunk, err := dec.ReadChunk(readChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decoding audio: %v", media.ErrMediaLoad, err)
		}
		for _, s := range chunk {
			samples = append(samples, clamp(s))
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: audio contains no samples", media.ErrMediaLoad)
	}

	return &SampleBuffer{
		samples:    samples,
		sampleRate: dec.SampleRate(),
		channels:   dec.NumChannels(),
	}, nil
}

// Len returns the number of samples N.
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}

// SampleRate returns the sample rate in Hz.
func (b *SampleBuffer) SampleRate() int {
	return b.sampleRate
}

// Channels returns the channel count of the source before downmixing.
func (b *SampleBuffer) Channels() int {
	return b.channels
}

// Duration returns the track length in seconds.
func (b *SampleBuffer) Duration() float64 {
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// Slice returns the samples covered by w. The result shares memory with the
// buffer and must not be modified.
func (b *SampleBuffer) Slice(w FrameWindow) []float64 {
	return b.samples[w.Start:w.End:w.End]
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
