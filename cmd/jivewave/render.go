package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/cli"
	"github.com/linuxmatters/jivewave/internal/encoder"
	"github.com/linuxmatters/jivewave/internal/sequencer"
	"github.com/linuxmatters/jivewave/internal/ui"
)

// errCancelled reports that the user stopped the render.
var errCancelled = errors.New("render cancelled")

// levelColumns is the width of the live waveform strip in the progress UI.
const levelColumns = 48

// encode drives the sequencer into the encoder and finalizes the output.
// On failure the partial output is removed.
func encode(ctx context.Context, job *renderJob, enc *encoder.Encoder) error {
	if err := job.seq.Run(ctx, enc); err != nil {
		enc.Abort()
		if ctx.Err() != nil {
			return errCancelled
		}
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing output: %w", err)
	}
	return nil
}

func renderInteractive(job *renderJob, enc *encoder.Encoder, outputFile string, noPreview bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	windower, err := audio.NewWindower(job.cfg.FPS(), job.samples.Duration(), job.samples.Len())
	if err != nil {
		return err
	}

	model := ui.NewModel(uiProfile(job.profile), noPreview)
	p := tea.NewProgram(model)

	videoCodec := enc.VideoCodec()
	audioCodec := audioCodecInfo(job.profile)
	previewConfig := ui.DefaultPreviewConfig()

	job.seq.OnProgress(func(pr sequencer.Progress) {
		k := pr.Frame - 1

		// Send progress update every 3 frames
		// Send frame data for preview every 6 frames (5Hz at 30fps)
		if k%3 != 0 && pr.Frame != pr.TotalFrames {
			return
		}

		msg := ui.RenderProgress{
			Frame:       pr.Frame,
			TotalFrames: pr.TotalFrames,
			FPS:         job.cfg.FPS(),
			Elapsed:     pr.Elapsed,
			FileSize:    fileSize(outputFile),
			VideoCodec:  videoCodec,
			AudioCodec:  audioCodec,
		}
		if w, err := windower.WindowAt(k); err == nil {
			msg.Levels = ui.WindowLevels(job.samples.Slice(w), levelColumns)
		}
		// The frame goes back to the pool after this callback, so the
		// preview is downsampled here rather than in the UI goroutine.
		if !noPreview && k%6 == 0 {
			msg.Preview = ui.DownsampleFrame(pr.Image, previewConfig)
		}

		p.Send(msg)
	})

	start := time.Now()
	var renderErr error
	done := make(chan struct{})

	go func() {
		defer close(done)

		if renderErr = encode(ctx, job, enc); renderErr != nil {
			p.Quit()
			return
		}
		p.Send(completion(job, enc, outputFile, time.Since(start)))
	}()

	// Run the Bubbletea UI
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("running UI: %w", err)
	}

	if model.Cancelled() {
		cancel()
	}
	<-done

	if renderErr != nil {
		if model.Cancelled() {
			return errCancelled
		}
		return renderErr
	}
	return nil
}

func renderHeadless(job *renderJob, enc *encoder.Encoder, outputFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fps := job.cfg.FPS()
	job.seq.OnProgress(func(pr sequencer.Progress) {
		if pr.Frame%fps == 0 || pr.Frame == pr.TotalFrames {
			slog.Debug("frames written", "frame", pr.Frame, "total", pr.TotalFrames, "elapsed", pr.Elapsed)
		}
	})

	start := time.Now()
	if err := encode(ctx, job, enc); err != nil {
		return err
	}

	c := completion(job, enc, outputFile, time.Since(start))
	cli.PrintSummary(cli.RenderSummary{
		Output:     c.OutputFile,
		FileSize:   c.FileSize,
		Frames:     c.TotalFrames,
		FPS:        c.FPS,
		Encoder:    c.EncoderName,
		Samples:    c.SamplesProcessed,
		AudioCodec: audioCodecInfo(job.profile),
		Elapsed:    c.TotalTime,
	})
	return nil
}

func completion(job *renderJob, enc *encoder.Encoder, outputFile string, renderTime time.Duration) ui.RenderComplete {
	timings := job.renderer.Timings()

	encoderName := "libx264"
	if hw := enc.HWEncoder(); hw != nil {
		encoderName = hw.Name
	}

	return ui.RenderComplete{
		OutputFile:       outputFile,
		FileSize:         fileSize(outputFile),
		TotalFrames:      enc.FramesWritten(),
		FPS:              job.cfg.FPS(),
		LoadTime:         job.loadTime,
		CompositeTime:    timings.Composite,
		WaveformTime:     timings.Waveform,
		EncodeTime:       enc.EncodeTime(),
		TotalTime:        job.loadTime + renderTime,
		SamplesProcessed: int64(job.samples.Len()),
		Workers:          job.seq.Workers(),
		EncoderName:      encoderName,
	}
}

func audioCodecInfo(p *audio.AudioProfile) string {
	channels := "mono"
	switch {
	case p.Channels == 2:
		channels = "stereo"
	case p.Channels > 2:
		channels = fmt.Sprintf("%dch", p.Channels)
	}
	return fmt.Sprintf("AAC %.1fkHz %s", float64(p.SampleRate)/1000.0, channels)
}

// fileSize returns the current size of path on disk, or 0 if it does not
// exist yet.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
