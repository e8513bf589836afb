package audio

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/jivewave/internal/media"
)

// writeTestWAV writes 16-bit PCM. data is interleaved when channels > 1.
func writeTestWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing WAV encoder: %v", err)
	}
	return path
}

// sineData returns a mono 440Hz tone at half scale.
func sineData(sampleRate int, seconds float64) []int {
	n := int(float64(sampleRate) * seconds)
	data := make([]int, n)
	for i := range data {
		data[i] = int(16384 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return data
}

func TestNewWAVDecoder(t *testing.T) {
	path := writeTestWAV(t, 44100, 1, sineData(44100, 1))

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatalf("Failed to create WAV decoder: %v", err)
	}
	defer dec.Close()

	if dec.NumSamples() != 44100 {
		t.Errorf("Expected 44100 samples, got %d", dec.NumSamples())
	}
	if dec.SampleRate() != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", dec.SampleRate())
	}
	if dec.NumChannels() != 1 {
		t.Errorf("Expected 1 channel, got %d", dec.NumChannels())
	}
}

func TestNewWAVDecoderInvalidFile(t *testing.T) {
	if _, err := NewWAVDecoder("nonexistent.wav"); err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}

	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("this is not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWAVDecoder(path); err == nil {
		t.Error("Expected error for invalid WAV, got nil")
	}
}

func TestWAVDecoderReadChunk(t *testing.T) {
	path := writeTestWAV(t, 44100, 1, sineData(44100, 1))

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	chunk, err := dec.ReadChunk(2048)
	if err != nil {
		t.Fatalf("Failed to read chunk: %v", err)
	}
	if len(chunk) != 2048 {
		t.Errorf("Expected chunk size 2048, got %d", len(chunk))
	}

	for i, sample := range chunk {
		if sample < -1.0 || sample > 1.0 {
			t.Errorf("Sample %d out of range: %f", i, sample)
		}
	}
}

func TestWAVDecoderEOF(t *testing.T) {
	path := writeTestWAV(t, 8000, 1, sineData(8000, 0.5))

	dec, err := NewWAVDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	total := 0
	for {
		chunk, err := dec.ReadChunk(1000)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		total += len(chunk)
	}

	if total != 4000 {
		t.Errorf("Read %d samples, want 4000", total)
	}

	if _, err := dec.ReadChunk(1000); err != io.EOF {
		t.Errorf("Expected EOF on read past end, got: %v", err)
	}
}

func TestWAVDecoderStereoDownmix(t *testing.T) {
	// Left at +half scale, right silent: mono average is a quarter scale.
	frames := 1000
	data := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = 16384
		data[i*2+1] = 0
	}
	path := writeTestWAV(t, 22050, 2, data)

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if buf.Len() != frames {
		t.Fatalf("Len() = %d, want %d", buf.Len(), frames)
	}
	if buf.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", buf.Channels())
	}

	want := 16384.0 / 32767.0 / 2
	for i, s := range buf.Slice(FrameWindow{Start: 0, End: buf.Len()}) {
		if math.Abs(s-want) > 1e-9 {
			t.Fatalf("sample %d = %f, want %f", i, s, want)
		}
	}
}

func TestLoad(t *testing.T) {
	testCases := []struct {
		name       string
		sampleRate int
		seconds    float64
	}{
		{"44.1kHz", 44100, 2},
		{"48kHz", 48000, 1.5},
		{"8kHz", 8000, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTestWAV(t, tc.sampleRate, 1, sineData(tc.sampleRate, tc.seconds))

			buf, err := Load(path)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if buf.SampleRate() != tc.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", buf.SampleRate(), tc.sampleRate)
			}
			if math.Abs(buf.Duration()-tc.seconds) > 1e-9 {
				t.Errorf("Duration() = %f, want %f", buf.Duration(), tc.seconds)
			}
		})
	}
}

func TestLoadErrorsWrapMediaLoad(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.wav"), garbage} {
		_, err := Load(path)
		if !errors.Is(err, media.ErrMediaLoad) {
			t.Errorf("Load(%s) error = %v, want ErrMediaLoad", filepath.Base(path), err)
		}
	}
}

func TestLoadEmptyWAV(t *testing.T) {
	path := writeTestWAV(t, 44100, 1, nil)
	if _, err := Load(path); !errors.Is(err, media.ErrMediaLoad) {
		t.Errorf("expected ErrMediaLoad for empty audio, got %v", err)
	}
}

func TestNewSampleBufferClamps(t *testing.T) {
	in := []float64{-1.5, -1, 0, 0.5, 1, 2}
	buf := NewSampleBuffer(in, 10, 1)

	want := []float64{-1, -1, 0, 0.5, 1, 1}
	got := buf.Slice(FrameWindow{Start: 0, End: buf.Len()})
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}

	in[3] = 0.9
	if got[3] != 0.5 {
		t.Error("NewSampleBuffer must copy its input")
	}
}

func TestAnalyzeAudio(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}
	samples[10] = 1

	profile := AnalyzeAudio(NewSampleBuffer(samples, 1000, 1))

	if profile.Peak != 1 {
		t.Errorf("Peak = %f, want 1", profile.Peak)
	}
	wantRMS := math.Sqrt((999*0.25 + 1) / 1000)
	if math.Abs(profile.RMS-wantRMS) > 1e-12 {
		t.Errorf("RMS = %f, want %f", profile.RMS, wantRMS)
	}
	if profile.DynamicRange <= 0 {
		t.Errorf("DynamicRange = %f, want positive", profile.DynamicRange)
	}
	if profile.Duration != 1 {
		t.Errorf("Duration = %f, want 1", profile.Duration)
	}
}

func TestAnalyzeAudioSilence(t *testing.T) {
	profile := AnalyzeAudio(NewSampleBuffer(make([]float64, 100), 100, 1))
	if profile.Peak != 0 || profile.RMS != 0 || profile.DynamicRange != 0 {
		t.Errorf("silent profile = %+v, want zero levels", profile)
	}
}

func TestNewDecoderPicksByExtension(t *testing.T) {
	path := writeTestWAV(t, 8000, 1, sineData(8000, 0.1))
	upper := filepath.Join(filepath.Dir(path), "TEST.WAV")
	if err := os.Rename(path, upper); err != nil {
		t.Fatal(err)
	}

	dec, err := NewDecoder(upper)
	if err != nil {
		t.Fatalf("NewDecoder returned error: %v", err)
	}
	defer dec.Close()

	if _, ok := dec.(*WAVDecoder); !ok {
		t.Errorf("NewDecoder(.WAV) = %T, want *WAVDecoder", dec)
	}
}
