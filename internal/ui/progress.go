package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Wave colour palette
var (
	// Core wave colours (deep to bright)
	waveFoam  = lipgloss.Color("#E0FFFF") // Light cyan
	waveCyan  = lipgloss.Color("#00CED1") // Dark turquoise
	waveBlue  = lipgloss.Color("#1E90FF") // Dodger blue
	waveDeep  = lipgloss.Color("#0047AB") // Cobalt
	waveAbyss = lipgloss.Color("#001F3F") // Navy

	// Accent colours
	mistGray = lipgloss.Color("#5F9EA0") // Cadet blue for subtle text
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseRendering Phase = iota
	PhaseComplete
)

// RenderProgress represents progress updates while frames are rendered
type RenderProgress struct {
	Frame       int
	TotalFrames int
	FPS         int
	Elapsed     time.Duration
	Levels      []float64      // Column peaks of the current window, see WindowLevels
	Preview     [][]color.RGBA // Downsampled frame, nil when unchanged
	FileSize    int64
	VideoCodec  string
	AudioCodec  string
}

// RenderComplete signals that the output file is finished
type RenderComplete struct {
	OutputFile       string
	FileSize         int64
	TotalFrames      int
	FPS              int
	LoadTime         time.Duration // Decoding audio and layers
	CompositeTime    time.Duration // Background and overlay blending, summed over workers
	WaveformTime     time.Duration // Glow and line stroking, summed over workers
	EncodeTime       time.Duration // Handing frames to the encoder
	TotalTime        time.Duration
	SamplesProcessed int64
	Workers          int
	EncoderName      string // Video encoder used (e.g., "h264_nvenc", "libx264")
}

// AudioProfile holds the audio analysis results for display
type AudioProfile struct {
	Duration     time.Duration
	PeakLevel    float64 // in dB
	RMSLevel     float64 // in dB
	DynamicRange float64 // in dB
	SampleRate   int
	Channels     int
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for a render
type Model struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase

	audioProfile *AudioProfile
	renderState  RenderProgress
	complete     *RenderComplete

	startTime      time.Time
	completionTime time.Time

	// UI state
	width           int
	height          int
	noPreview       bool
	cachedPreview   string
	completionDelay time.Duration
	quitting        bool
	cancelled       bool
}

// NewModel creates a new progress UI model
func NewModel(profile *AudioProfile, noPreview bool) *Model {
	// Wave gradient: cobalt → cyan
	p := progress.New(
		progress.WithGradient(string(waveDeep), string(waveCyan)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	// Smaller progress bar for summary performance charts
	summaryBar := progress.New(
		progress.WithGradient(string(waveDeep), string(waveCyan)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseRendering,
		audioProfile:    profile,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case RenderProgress:
		if msg.Preview != nil && !m.noPreview {
			m.cachedPreview = RenderPreview(msg.Preview)
		}
		m.renderState = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete
		m.completionTime = time.Now()
		m.quitting = true

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// Cancelled reports whether the user interrupted the render with ctrl+c.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.CompletionSummary()
	}
	return m.renderProgress()
}

// CompletionSummary returns the final completion summary for printing after the program exits.
// Returns empty string if encoding is not complete.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderComplete()
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	// Title
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(waveCyan).
		Render("Jivewave 🌊")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(waveBlue).Render("Rendering & Encoding"))
	s.WriteString("\n\n")

	m.renderRenderingProgress(&s)

	s.WriteString("\n\n")
	m.renderAudioProfile(&s)

	if len(m.renderState.Levels) > 0 {
		s.WriteString("\n\n")
		m.renderLevelsAndStats(&s)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(waveBlue).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderRenderingProgress(s *strings.Builder) {
	if m.renderState.TotalFrames == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render..."))
		return
	}

	percent := float64(m.renderState.Frame) / float64(m.renderState.TotalFrames)
	currentPhase := fmt.Sprintf("Frame %d of %d", m.renderState.Frame, m.renderState.TotalFrames)

	progressBar := m.progressBar.ViewAs(percent)
	s.WriteString("Progress: ")
	s.WriteString(progressBar)
	fmt.Fprintf(s, "  %d%%", int(percent*100))
	s.WriteString("\n\n")

	// Timing information
	elapsed := m.renderState.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.startTime)
	}

	var estimatedTotal, eta time.Duration
	var speed float64

	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed

		if elapsed > 0 {
			speed = float64(videoDuration(m.renderState.Frame, m.renderState.FPS)) / float64(elapsed)
		}
	}

	timingInfo := fmt.Sprintf("Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
		formatDuration(elapsed),
		formatDuration(estimatedTotal),
		speed,
		formatDuration(eta))

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timingInfo))
	s.WriteString("\n")

	phaseStyle := lipgloss.NewStyle().Faint(true).Italic(true)
	s.WriteString(phaseStyle.Render(currentPhase))
}

func (m *Model) renderAudioProfile(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	if m.audioProfile == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("unavailable"))
		return
	}

	s.WriteString(valueStyle.Render(fmt.Sprintf("%.1fs", m.audioProfile.Duration.Seconds())))
	for _, field := range []struct {
		label string
		value float64
	}{
		{"Peak:", m.audioProfile.PeakLevel},
		{"RMS:", m.audioProfile.RMSLevel},
		{"Range:", m.audioProfile.DynamicRange},
	} {
		s.WriteString("  ")
		s.WriteString(labelStyle.Render(field.label))
		s.WriteString(" ")
		s.WriteString(valueStyle.Render(fmt.Sprintf("%.1f dB", field.value)))
	}
}

func (m *Model) renderLevelsAndStats(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(waveBlue).Render("Live Waveform:"))
	s.WriteString("\n")

	levels := renderLevels(m.renderState.Levels)

	var rightCol strings.Builder
	labelStyle := lipgloss.NewStyle().Foreground(mistGray)
	valueStyle := lipgloss.NewStyle().Bold(true)

	rightCol.WriteString(labelStyle.Render("File:  "))
	rightCol.WriteString(valueStyle.Render(formatBytes(m.renderState.FileSize)))
	rightCol.WriteString("\n")

	if m.renderState.VideoCodec != "" {
		rightCol.WriteString(labelStyle.Render("Video: "))
		rightCol.WriteString(valueStyle.Render(m.renderState.VideoCodec))
		rightCol.WriteString("\n")
	}

	if m.renderState.AudioCodec != "" {
		rightCol.WriteString(labelStyle.Render("Audio: "))
		rightCol.WriteString(valueStyle.Render(m.renderState.AudioCodec))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		levels,
		"  ",
		rightCol.String()))

	if !m.noPreview && m.cachedPreview != "" {
		s.WriteString("\n\n")
		s.WriteString(m.cachedPreview)
	}
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(waveCyan).
		Render("✓ Encoding Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	c := m.complete
	duration := videoDuration(c.TotalFrames, c.FPS)

	fmt.Fprintf(&s, "%s%s\n", dimLabel.Render("Output:   "), c.OutputFile)
	if c.EncoderName != "" {
		fmt.Fprintf(&s, "%s%s\n", dimLabel.Render("Encoder:  "), c.EncoderName)
	}
	fmt.Fprintf(&s, "%s%d frames at %d fps, %d workers\n", dimLabel.Render("Video:    "), c.TotalFrames, c.FPS, c.Workers)
	if c.SamplesProcessed > 0 {
		fmt.Fprintf(&s, "%s%d samples\n", dimLabel.Render("Audio:    "), c.SamplesProcessed)
	}
	fmt.Fprintf(&s, "%s%.1fs video in %.1fs\n", dimLabel.Render("Duration: "), duration.Seconds(), c.TotalTime.Seconds())
	fmt.Fprintf(&s, "%s%s\n\n", dimLabel.Render("Size:     "), formatBytes(c.FileSize))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(waveBlue)
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	highlightValueStyle := lipgloss.NewStyle().Foreground(waveCyan)

	s.WriteString(headerStyle.Render("Performance"))
	s.WriteString("\n")

	totalMs := c.TotalTime.Milliseconds()
	if totalMs == 0 {
		totalMs = 1
	}
	row := func(label string, d time.Duration) {
		ratio := float64(d.Milliseconds()) / float64(totalMs)
		fmt.Fprintf(&s, "  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", label)),
			valueStyle.Render(fmt.Sprintf("~%-6s", formatDuration(d))),
			int(min(ratio, 1)*100),
			m.summaryBar.ViewAs(min(ratio, 1)))
	}

	if c.LoadTime > 0 {
		row("Loading:", c.LoadTime)
	}
	// Worker stages overlap, so these can add up to more than the total.
	row("Compositing:", c.CompositeTime)
	row("Waveform:", c.WaveformTime)
	row("Video encoding:", c.EncodeTime)

	fmt.Fprintf(&s, "  %s%s", labelStyle.Render(fmt.Sprintf("%-18s", "Total time:")), highlightValueStyle.Render(formatDuration(c.TotalTime)))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(waveBlue).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// Helper functions

func videoDuration(frames, fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(fps)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// renderLevels draws column peaks as a two row strip mirrored around the
// centre line, coloured from deep blue (quiet) to foam (loud).
func renderLevels(levels []float64) string {
	if len(levels) == 0 {
		return ""
	}

	upper := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lower := []rune{' ', '▔', '▔', '▀', '▀', '▀', '█', '█', '█'}

	waveColors := []lipgloss.Color{waveAbyss, waveDeep, waveBlue, waveCyan, waveFoam}

	var top, bottom strings.Builder
	for _, level := range levels {
		level = max(0, min(level, 1))
		idx := int(level * float64(len(upper)-1))
		style := lipgloss.NewStyle().Foreground(waveColors[int(level*float64(len(waveColors)-1))])
		top.WriteString(style.Render(string(upper[idx])))
		bottom.WriteString(style.Render(string(lower[idx])))
	}

	return top.String() + "\n" + bottom.String()
}
