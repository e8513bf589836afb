package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AudioDecoder defines the interface for all audio format decoders
type AudioDecoder interface {
	// ReadChunk reads up to numSamples mono samples as float64 in [-1, 1].
	// Multi-channel input is downmixed by averaging.
	// Returns io.EOF when no samples remain.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumSamples returns the total number of samples in the audio file
	// Returns 0 if the length is unknown (e.g., streaming)
	NumSamples() int64

	// NumChannels returns the number of audio channels in the source
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}

// NewDecoder picks a decoder from the file extension. Formats without a
// native Go decoder are handed to ffmpeg.
func NewDecoder(filename string) (AudioDecoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		dec, err := NewFFmpegDecoder(filename)
		if err != nil {
			return nil, fmt.Errorf("no decoder for %s: %w", filepath.Base(filename), err)
		}
		return dec, nil
	}
}
