package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrWindowRange is returned when a window start index is negative or not a
// finite number.
var ErrWindowRange = errors.New("sample window out of range")

// FrameWindow is the half-open sample range [Start, End) shown in one frame.
type FrameWindow struct {
	Start int
	End   int
}

// Len returns the number of samples in the window.
func (w FrameWindow) Len() int {
	return w.End - w.Start
}

// Empty reports whether the window holds no samples.
func (w FrameWindow) Empty() bool {
	return w.End <= w.Start
}

// Windower maps playback time to the slice of samples drawn for that frame.
type Windower struct {
	fps             int
	duration        float64
	numSamples      int
	samplesPerFrame int
}

// NewWindower prepares windowing for a buffer of numSamples samples played
// over duration seconds at fps frames per second.
func NewWindower(fps int, duration float64, numSamples int) (*Windower, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("duration must be positive and finite, got %g", duration)
	}
	if numSamples < 0 {
		return nil, fmt.Errorf("sample count must not be negative, got %d", numSamples)
	}

	return &Windower{
		fps:             fps,
		duration:        duration,
		numSamples:      numSamples,
		samplesPerFrame: int(math.Floor(float64(numSamples) / (float64(fps) * duration))),
	}, nil
}

// SamplesPerFrame returns floor(N / (fps * duration)).
func (w *Windower) SamplesPerFrame() int {
	return w.samplesPerFrame
}

// FrameCount returns round(fps * duration).
func (w *Windower) FrameCount() int {
	return FrameCount(w.fps, w.duration)
}

// Window returns the window for playback time t using
// start = floor(t * samplesPerFrame * fps).
func (w *Windower) Window(t float64) (FrameWindow, error) {
	start := math.Floor(t * float64(w.samplesPerFrame) * float64(w.fps))
	if math.IsNaN(start) || math.IsInf(start, 0) || start < 0 {
		return FrameWindow{}, fmt.Errorf("%w: t=%g gives start %g", ErrWindowRange, t, start)
	}
	if start > float64(w.numSamples) {
		start = float64(w.numSamples)
	}
	return w.bounded(int(start)), nil
}

// WindowAt returns the window for tick k, whose time is k / fps. It is the
// integer form of Window: start = k * samplesPerFrame.
func (w *Windower) WindowAt(tick int) (FrameWindow, error) {
	if tick < 0 {
		return FrameWindow{}, fmt.Errorf("%w: tick %d", ErrWindowRange, tick)
	}
	if w.samplesPerFrame > 0 && tick > w.numSamples/w.samplesPerFrame {
		return w.bounded(w.numSamples), nil
	}
	return w.bounded(tick * w.samplesPerFrame), nil
}

func (w *Windower) bounded(start int) FrameWindow {
	if start > w.numSamples {
		start = w.numSamples
	}
	end := min(w.numSamples, start+w.samplesPerFrame)
	return FrameWindow{Start: start, End: end}
}

// FrameCount returns the number of frames rendered for duration seconds at
// fps, round(fps * duration).
func FrameCount(fps int, duration float64) int {
	return int(math.Round(float64(fps) * duration))
}
