package main

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/jivewave/internal/audio"
	"github.com/linuxmatters/jivewave/internal/blend"
	"github.com/linuxmatters/jivewave/internal/cli"
	"github.com/linuxmatters/jivewave/internal/config"
	"github.com/linuxmatters/jivewave/internal/encoder"
	"github.com/linuxmatters/jivewave/internal/media"
	"github.com/linuxmatters/jivewave/internal/renderer"
	"github.com/linuxmatters/jivewave/internal/sequencer"
	"github.com/linuxmatters/jivewave/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Background string `arg:"" name:"image_or_video_file" help:"Background image or video (looped)" optional:""`
	Audio      string `arg:"" name:"audio_file" help:"Audio to visualise and mux into the output" optional:""`
	Output     string `arg:"" name:"output_file" help:"Output MP4 file, or PNG with --snapshot" optional:""`

	FPS               int     `name:"fps" group:"render" help:"Frames per second" default:"30" placeholder:"N"`
	FrameSize         string  `name:"frame_size" group:"render" help:"Output size" default:"1280x720" placeholder:"WxH"`
	WaveformHeight    int     `name:"waveform_height" group:"render" help:"Waveform height in pixels" default:"100" placeholder:"PX"`
	WaveformColor     string  `name:"waveform_color" group:"render" help:"Waveform colour, name or #RRGGBB" default:"blue" placeholder:"COLOR"`
	GlowColor         string  `name:"glow_color" group:"render" help:"Glow colour, name or #RRGGBB" default:"blue" placeholder:"COLOR"`
	OverlayImage      string  `name:"overlay_image" group:"render" help:"Image blended with the background" placeholder:"FILE"`
	BlendMode         string  `name:"blend_mode" group:"render" help:"Blend mode for the overlay" default:"multiply" placeholder:"MODE"`
	DisableBW         bool    `name:"disable_bw" group:"render" help:"Keep the background in colour when an overlay is used"`
	SwapOverlayLayers bool    `name:"swap_overlay_layers" group:"render" help:"Use the overlay as the blend background"`
	GlowScale         float64 `name:"glow_scale" group:"tuning" help:"Multiplier for glow layer opacity" default:"1.0" placeholder:"X"`
	Workers           int     `group:"tuning" help:"Render workers, 0 for one per CPU" default:"0" placeholder:"N"`
	Encoder           string  `group:"tuning" help:"H.264 encoder" default:"none" placeholder:"NAME"`

	Snapshot   bool    `group:"run" help:"Render a single frame to PNG instead of encoding"`
	At         float64 `group:"run" help:"Time in seconds of the --snapshot frame" default:"0" placeholder:"SECONDS"`
	NoPreview  bool    `group:"run" help:"Disable video preview during encoding"`
	NoProgress bool    `group:"run" help:"Disable the interactive progress display"`
	LogLevel   string  `group:"run" help:"Log level" default:"warn" placeholder:"LEVEL"`
	Encoders   bool    `help:"List hardware encoder availability and exit"`
	Version    bool    `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("jivewave"),
		kong.Description(cli.Tagline),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.ExplicitGroups([]kong.Group{
			{Key: "render", Title: "Render options:"},
			{Key: "tuning", Title: "Performance and encoding:"},
			{Key: "run", Title: "Run modes and output:"},
		}),
		kong.Help(cli.StyledHelpPrinter(map[string][]string{
			"blend_mode": blend.Names(),
			"encoder":    encoder.AccelNames(),
			"log-level":  cli.LogLevels(),
		})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if _, err := cli.InitLogger(os.Stderr, CLI.LogLevel); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if CLI.Encoders {
		fmt.Print(encoder.GetEncoderStatus())
		os.Exit(0)
	}

	// Validate required arguments when not showing version
	if CLI.Background == "" || CLI.Audio == "" || CLI.Output == "" {
		cli.PrintError("<image_or_video_file>, <audio_file> and <output_file> are required")
		os.Exit(1)
	}

	// Configuration errors are reported before anything is loaded
	cfg, err := config.New(config.Options{
		FPS:            CLI.FPS,
		FrameSize:      CLI.FrameSize,
		WaveformHeight: CLI.WaveformHeight,
		WaveformColor:  CLI.WaveformColor,
		GlowColor:      CLI.GlowColor,
		GlowScale:      CLI.GlowScale,
		OverlayImage:   CLI.OverlayImage,
		BlendMode:      CLI.BlendMode,
		DisableBW:      CLI.DisableBW,
		SwapOverlay:    CLI.SwapOverlayLayers,
		Workers:        CLI.Workers,
	}, blend.Validate)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	for _, w := range cfg.Warnings() {
		slog.Warn(w)
	}

	accel, ok := encoder.ParseHWAccel(CLI.Encoder)
	if !ok {
		cli.PrintError(fmt.Sprintf("%v: unknown encoder %q", config.ErrConfiguration, CLI.Encoder))
		os.Exit(1)
	}
	if CLI.Snapshot && (CLI.At < 0 || math.IsNaN(CLI.At) || math.IsInf(CLI.At, 0)) {
		cli.PrintError(fmt.Sprintf("%v: --at must be a non-negative number of seconds, got %g", config.ErrConfiguration, CLI.At))
		os.Exit(1)
	}

	if err := run(cfg, accel); err != nil {
		if errors.Is(err, errCancelled) {
			cli.PrintWarning("render cancelled, partial output removed")
		} else {
			cli.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func run(cfg config.RenderConfig, accel encoder.HWAccelType) error {
	job, err := load(cfg)
	if err != nil {
		return err
	}
	defer job.background.Close()

	if CLI.Snapshot {
		if err := snapshot(job, CLI.At, CLI.Output); err != nil {
			return err
		}
		cli.PrintSuccess(fmt.Sprintf("Frame at %.2fs written to %s", CLI.At, CLI.Output))
		return nil
	}

	enc, err := encoder.New(encoder.Config{
		OutputPath: CLI.Output,
		AudioPath:  CLI.Audio,
		Width:      cfg.Width(),
		Height:     cfg.Height(),
		Framerate:  cfg.FPS(),
		HWAccel:    accel,
	})
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	if err := enc.Initialize(); err != nil {
		return fmt.Errorf("initializing encoder: %w", err)
	}
	slog.Info("encoder started", "codec", enc.VideoCodec(), "output", CLI.Output)

	if CLI.NoProgress {
		err = renderHeadless(job, enc, CLI.Output)
	} else {
		err = renderInteractive(job, enc, CLI.Output, CLI.NoPreview)
	}
	if err != nil {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", CLI.Output))
	return nil
}

// renderJob is everything loaded from disk for one render.
type renderJob struct {
	cfg        config.RenderConfig
	samples    *audio.SampleBuffer
	profile    *audio.AudioProfile
	background media.Source
	renderer   *renderer.Renderer
	seq        *sequencer.Sequencer
	loadTime   time.Duration
}

func load(cfg config.RenderConfig) (*renderJob, error) {
	start := time.Now()

	samples, err := audio.Load(CLI.Audio)
	if err != nil {
		return nil, err
	}
	profile := audio.AnalyzeAudio(samples)
	slog.Info("audio loaded",
		"file", CLI.Audio,
		"samples", profile.NumSamples,
		"sample_rate", profile.SampleRate,
		"channels", profile.Channels,
		"duration", profile.Duration)

	var overlay *image.RGBA
	if cfg.HasOverlay() {
		overlay, err = media.LoadImage(cfg.OverlayPath(), cfg.Width(), cfg.Height())
		if err != nil {
			return nil, err
		}
	}

	background, err := media.Open(CLI.Background, cfg.Width(), cfg.Height(), cfg.FPS(), samples.Duration())
	if err != nil {
		return nil, err
	}

	r, err := renderer.NewRenderer(cfg, overlay)
	if err != nil {
		background.Close()
		return nil, err
	}

	seq, err := sequencer.New(samples, background, r, cfg.FPS(), cfg.Workers())
	if err != nil {
		background.Close()
		return nil, err
	}
	slog.Info("render prepared",
		"frames", seq.FrameCount(),
		"samples_per_frame", seq.SamplesPerFrame(),
		"workers", seq.Workers(),
		"overlay", cfg.HasOverlay(),
		"grayscale", cfg.Grayscale(),
		"swap", cfg.SwapLayers())

	return &renderJob{
		cfg:        cfg,
		samples:    samples,
		profile:    profile,
		background: background,
		renderer:   r,
		seq:        seq,
		loadTime:   time.Since(start),
	}, nil
}

func snapshot(job *renderJob, at float64, outputPath string) error {
	frame, err := job.seq.RenderAt(at)
	if err != nil {
		return fmt.Errorf("rendering frame at %gs: %w", at, err)
	}
	return renderer.SavePNG(frame, outputPath)
}

// uiProfile converts the amplitude profile to the dBFS values the progress
// display shows.
func uiProfile(p *audio.AudioProfile) *ui.AudioProfile {
	return &ui.AudioProfile{
		Duration:     time.Duration(p.Duration * float64(time.Second)),
		PeakLevel:    dbfs(p.Peak),
		RMSLevel:     dbfs(p.RMS),
		DynamicRange: p.DynamicRange,
		SampleRate:   p.SampleRate,
		Channels:     p.Channels,
	}
}

// dbfs converts a linear amplitude to decibels, floored at -120 dB for silence.
func dbfs(v float64) float64 {
	if v <= 1e-6 {
		return -120
	}
	return 20 * math.Log10(v)
}
