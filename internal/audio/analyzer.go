package audio

import "math"

// AudioProfile holds amplitude statistics for a loaded track
type AudioProfile struct {
	// Global statistics
	Peak         float64 // Largest absolute sample value
	RMS          float64 // Root mean square over the whole track
	DynamicRange float64 // Peak to RMS ratio in dB (crest factor)

	// Audio metadata
	NumSamples int
	SampleRate int
	Channels   int
	Duration   float64 // Seconds
}

// AnalyzeAudio computes the amplitude profile of buf.
func AnalyzeAudio(buf *SampleBuffer) *AudioProfile {
	profile := &AudioProfile{
		NumSamples: buf.Len(),
		SampleRate: buf.SampleRate(),
		Channels:   buf.Channels(),
		Duration:   buf.Duration(),
	}

	if buf.Len() == 0 {
		return profile
	}

	var sumSquares float64
	for _, s := range buf.samples {
		sumSquares += s * s
		if a := math.Abs(s); a > profile.Peak {
			profile.Peak = a
		}
	}
	profile.RMS = math.Sqrt(sumSquares / float64(buf.Len()))

	if profile.RMS > 0 {
		profile.DynamicRange = 20 * math.Log10(profile.Peak/profile.RMS)
	}

	return profile
}
