package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

const appTitle = "Jivewave 🌊"

var (
	helpTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(WaveCyan)
	helpDescStyle    = lipgloss.NewStyle().Italic(true).Foreground(WaveBlue).MarginBottom(1)
	helpSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(WaveBlue).MarginTop(1)
	helpNameStyle    = lipgloss.NewStyle().Bold(true).Foreground(WaveFoam)
	helpChoiceStyle  = lipgloss.NewStyle().Foreground(WaveCyan)
	helpDefaultStyle = lipgloss.NewStyle().Italic(true).Foreground(MistGray)
)

// helpEntry is one row of a help section: the left column and its
// description.
type helpEntry struct {
	name string
	text string
}

type helpSection struct {
	title   string
	entries []helpEntry
}

// StyledHelpPrinter renders kong help in the wave theme. Flags are listed by
// kong group in declaration order. choices maps a flag name to the values it
// accepts, which are shown after its description.
func StyledHelpPrinter(choices map[string][]string) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(appTitle))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(Tagline))
		sb.WriteString("\n")

		sections := append(
			[]helpSection{{title: "Usage:", entries: []helpEntry{{name: usageLine(ctx.Model.Node)}}}},
			argumentSection(ctx.Model.Node),
		)
		sections = append(sections, flagSections(ctx.Model.Node, choices)...)

		for _, section := range sections {
			writeSection(&sb, section)
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

func usageLine(node *kong.Node) string {
	parts := []string{node.Name}
	for _, arg := range node.Positional {
		parts = append(parts, "<"+arg.Name+">")
	}
	return strings.Join(append(parts, "[flags]"), " ")
}

func argumentSection(node *kong.Node) helpSection {
	section := helpSection{title: "Arguments:"}
	for _, arg := range node.Positional {
		section.entries = append(section.entries, helpEntry{name: "<" + arg.Name + ">", text: arg.Help})
	}
	return section
}

// flagSections groups flags by their kong group; ungrouped flags and help
// come last under "Other:".
func flagSections(node *kong.Node, choices map[string][]string) []helpSection {
	var sections []helpSection
	index := map[string]int{}
	other := helpSection{title: "Other:"}

	for _, f := range node.Flags {
		if f.Name == "help" {
			continue
		}
		entry := helpEntry{name: flagName(f), text: flagText(f, choices[f.Name])}

		if f.Group == nil {
			other.entries = append(other.entries, entry)
			continue
		}
		i, ok := index[f.Group.Key]
		if !ok {
			i = len(sections)
			index[f.Group.Key] = i
			sections = append(sections, helpSection{title: f.Group.Title})
		}
		sections[i].entries = append(sections[i].entries, entry)
	}

	other.entries = append(other.entries, helpEntry{name: "-h, --help", text: "Show context-sensitive help."})
	return append(sections, other)
}

func flagName(f *kong.Flag) string {
	name := "--" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, %s", f.Short, name)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		name += "=" + f.PlaceHolder
	}
	return name
}

func flagText(f *kong.Flag, values []string) string {
	text := f.Help
	if len(values) > 0 {
		text += " " + helpChoiceStyle.Render("["+strings.Join(values, "|")+"]")
	}
	if f.HasDefault && !f.IsBool() && f.Default != "" {
		text += " " + helpDefaultStyle.Render("(default: "+f.Default+")")
	}
	return text
}

func writeSection(sb *strings.Builder, section helpSection) {
	if len(section.entries) == 0 {
		return
	}

	width := 0
	for _, e := range section.entries {
		width = max(width, lipgloss.Width(e.name))
	}

	sb.WriteString(helpSectionStyle.Render(section.title))
	sb.WriteString("\n")
	for _, e := range section.entries {
		sb.WriteString("  ")
		sb.WriteString(helpNameStyle.Render(e.name))
		if e.text != "" {
			sb.WriteString(strings.Repeat(" ", width-lipgloss.Width(e.name)+2))
			sb.WriteString(e.text)
		}
		sb.WriteString("\n")
	}
}
