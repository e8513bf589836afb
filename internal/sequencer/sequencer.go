// Package sequencer drives a render: it walks the timeline tick by tick,
// renders frames on a worker pool and hands them to a sink in order.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/media"
)

// ErrFailed wraps the first error that stopped a render.
var ErrFailed = errors.New("render failed")

// State is the lifecycle of a Sequencer. It only moves forward.
type State int32

const (
	Idle State = iota
	Rendering
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// FrameRenderer turns a background frame and a sample window into a finished
// frame. RenderFrame is called from several goroutines at once.
type FrameRenderer interface {
	RenderFrame(bg *image.RGBA, samples []float64) (*image.RGBA, error)
	Release(frame *image.RGBA)
}

// FrameSink consumes finished frames in tick order. The frame is only valid
// for the duration of the call.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
}

// Progress describes the frame that was just written.
type Progress struct {
	Frame       int // frames written so far
	TotalFrames int
	Elapsed     time.Duration
	Image       *image.RGBA // valid only during the callback
}

// ProgressFunc is called from the writing goroutine after every frame.
type ProgressFunc func(Progress)

// Sequencer renders every frame of one video exactly once.
type Sequencer struct {
	samples    *audio.SampleBuffer
	windower   *audio.Windower
	background media.Source
	renderer   FrameRenderer
	fps        int
	workers    int
	progress   ProgressFunc

	state atomic.Int32
}

type job struct {
	index      int
	background *image.RGBA
	samples    []float64
}

type result struct {
	index int
	frame *image.RGBA
	err   error
}

// New prepares a sequencer. workers <= 0 uses one worker per CPU.
func New(samples *audio.SampleBuffer, background media.Source, renderer FrameRenderer, fps, workers int) (*Sequencer, error) {
	windower, err := audio.NewWindower(fps, samples.Duration(), samples.Len())
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Sequencer{
		samples:    samples,
		windower:   windower,
		background: background,
		renderer:   renderer,
		fps:        fps,
		workers:    workers,
	}, nil
}

// OnProgress registers fn to be called after each written frame. It must be
// set before Run.
func (s *Sequencer) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// FrameCount returns round(fps * duration).
func (s *Sequencer) FrameCount() int {
	return s.windower.FrameCount()
}

// SamplesPerFrame returns the window length used for every tick.
func (s *Sequencer) SamplesPerFrame() int {
	return s.windower.SamplesPerFrame()
}

// Workers returns the size of the render pool.
func (s *Sequencer) Workers() int {
	return s.workers
}

// State returns the current lifecycle state.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// RenderAt renders the single frame at playback time t. The caller owns the
// returned frame.
func (s *Sequencer) RenderAt(t float64) (*image.RGBA, error) {
	window, err := s.windower.Window(t)
	if err != nil {
		return nil, err
	}
	bg, err := s.background.FrameAt(t)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderFrame(bg, s.samples.Slice(window))
}

// Run renders all frames into sink. It may be called once. Any error stops
// the render, moves the sequencer to Failed and is returned wrapped in
// ErrFailed.
func (s *Sequencer) Run(ctx context.Context, sink FrameSink) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Rendering)) {
		return fmt.Errorf("sequencer cannot run from state %s", s.State())
	}

	if err := s.run(ctx, sink); err != nil {
		s.state.Store(int32(Failed))
		return fmt.Errorf("%w: %w", ErrFailed, err)
	}

	s.state.Store(int32(Done))
	return nil
}

func (s *Sequencer) run(parent context.Context, sink FrameSink) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	total := s.FrameCount()
	start := time.Now()

	jobs := make(chan job)
	results := make(chan result, s.workers)
	// One token per frame in flight, returned once the frame is written.
	tokens := make(chan struct{}, s.workers)

	// Backgrounds are fetched here, strictly in tick order, because a video
	// source can only read forward.
	go func() {
		defer close(jobs)
		for k := 0; k < total; k++ {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return
			}

			j, err := s.prepare(k)
			if err != nil {
				cancel(err)
				return
			}

			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				frame, err := s.renderer.RenderFrame(j.background, j.samples)
				select {
				case results <- result{index: j.index, frame: frame, err: err}:
				case <-ctx.Done():
					if frame != nil {
						s.renderer.Release(frame)
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]*image.RGBA, s.workers)
	next := 0

	for r := range results {
		if r.err != nil {
			cancel(fmt.Errorf("frame %d: %w", r.index, r.err))
			continue
		}
		if ctx.Err() != nil {
			s.renderer.Release(r.frame)
			continue
		}

		pending[r.index] = r.frame
		for {
			frame, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)

			err := sink.WriteFrame(frame)
			if err == nil && s.progress != nil {
				s.progress(Progress{
					Frame:       next + 1,
					TotalFrames: total,
					Elapsed:     time.Since(start),
					Image:       frame,
				})
			}
			s.renderer.Release(frame)
			<-tokens

			if err != nil {
				cancel(fmt.Errorf("writing frame %d: %w", next, err))
				break
			}
			next++
		}
	}

	for _, frame := range pending {
		s.renderer.Release(frame)
	}

	if err := context.Cause(ctx); err != nil {
		return err
	}
	if next != total {
		return fmt.Errorf("wrote %d of %d frames", next, total)
	}
	return nil
}

// prepare resolves the inputs for tick k.
func (s *Sequencer) prepare(k int) (job, error) {
	window, err := s.windower.WindowAt(k)
	if err != nil {
		return job{}, fmt.Errorf("frame %d: %w", k, err)
	}

	bg, err := s.background.FrameAt(float64(k) / float64(s.fps))
	if err != nil {
		return job{}, fmt.Errorf("frame %d background: %w", k, err)
	}

	return job{index: k, background: bg, samples: s.samples.Slice(window)}, nil
}
