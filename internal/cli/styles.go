package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Tagline is the one-line description shown in the help output.
const Tagline = "Draw a glowing waveform of your audio over an image or video loop and encode it to MP4."

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(WaveCyan)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(Coral)
	warningStyle = lipgloss.NewStyle().Foreground(Coral)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(WaveFoam)
	keyStyle     = lipgloss.NewStyle().Foreground(MistGray)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WaveDeep).
			Padding(1, 2)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Printf("%s %s\n", titleStyle.Render(appTitle), valueStyle.Render(version))
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message to stderr
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
}

// RenderSummary is the report printed after a render without the
// interactive display.
type RenderSummary struct {
	Output     string
	FileSize   int64
	Frames     int
	FPS        int
	Encoder    string
	Samples    int64
	AudioCodec string
	Elapsed    time.Duration
}

// String lays the summary out as a boxed key/value table.
func (s RenderSummary) String() string {
	video := time.Duration(0)
	if s.FPS > 0 {
		video = time.Duration(s.Frames) * time.Second / time.Duration(s.FPS)
	}
	speed := video.Seconds() / max(s.Elapsed.Seconds(), 1e-3)

	rows := [][2]string{
		{"Output", s.Output},
		{"Size", formatBytes(s.FileSize)},
		{"Video", fmt.Sprintf("%d frames at %d fps (%s), %s", s.Frames, s.FPS, formatDuration(video), s.Encoder)},
		{"Audio", fmt.Sprintf("%d samples, %s", s.Samples, s.AudioCodec)},
		{"Time", fmt.Sprintf("%s, %.1fx realtime", formatDuration(s.Elapsed), speed)},
	}

	var b strings.Builder
	b.WriteString(successStyle.Render("✓ Encoding Complete!"))
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%s %s", keyStyle.Render(fmt.Sprintf("%-7s", row[0]+":")), valueStyle.Render(row[1]))
	}
	return boxStyle.Render(b.String())
}

// PrintSummary prints s to stdout.
func PrintSummary(s RenderSummary) {
	fmt.Println(s.String())
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
