package cli

import "github.com/charmbracelet/lipgloss"

// Wave colour palette 🌊
// Shared with the help printer and status messages
var (
	// Core wave colours (bright to deep)
	WaveFoam = lipgloss.Color("#E0FFFF") // Light cyan
	WaveCyan = lipgloss.Color("#00CED1") // Dark turquoise
	WaveBlue = lipgloss.Color("#1E90FF") // Dodger blue
	WaveDeep = lipgloss.Color("#0047AB") // Cobalt

	// Accent colours
	MistGray = lipgloss.Color("#5F9EA0") // Cadet blue for subtle text
	Coral    = lipgloss.Color("#FF7F50") // Errors and warnings stand out against the blues
)
