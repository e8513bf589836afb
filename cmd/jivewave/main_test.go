package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/jivewave/internal/audio"
)

func TestDBFS(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"full scale", 1, 0},
		{"half", 0.5, 20 * math.Log10(0.5)},
		{"silence is floored", 0, -120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dbfs(tt.v); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("dbfs(%g) = %g, want %g", tt.v, got, tt.want)
			}
		})
	}
}

func TestAudioCodecInfo(t *testing.T) {
	tests := []struct {
		channels int
		want     string
	}{
		{1, "AAC 48.0kHz mono"},
		{2, "AAC 48.0kHz stereo"},
		{6, "AAC 48.0kHz 6ch"},
	}

	for _, tt := range tests {
		got := audioCodecInfo(&audio.AudioProfile{SampleRate: 48000, Channels: tt.channels})
		if got != tt.want {
			t.Errorf("audioCodecInfo(%d channels) = %q, want %q", tt.channels, got, tt.want)
		}
	}
}

func TestUIProfile(t *testing.T) {
	p := uiProfile(&audio.AudioProfile{Peak: 1, RMS: 0.1, DynamicRange: 20, Duration: 2.5, SampleRate: 44100, Channels: 2})

	if p.Duration.Seconds() != 2.5 {
		t.Errorf("Duration = %v, want 2.5s", p.Duration)
	}
	if p.PeakLevel != 0 {
		t.Errorf("PeakLevel = %g, want 0 dB", p.PeakLevel)
	}
	if math.Abs(p.RMSLevel+20) > 1e-9 {
		t.Errorf("RMSLevel = %g, want -20 dB", p.RMSLevel)
	}
}

func TestFileSizeMissing(t *testing.T) {
	if got := fileSize(filepath.Join(t.TempDir(), "missing.mp4")); got != 0 {
		t.Errorf("fileSize of missing file = %d, want 0", got)
	}
}
