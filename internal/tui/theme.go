package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Title      lipgloss.Style
	Search     lipgloss.Style
	Chip       lipgloss.Style
	ChipActive lipgloss.Style
	Lesson     lipgloss.Style
	Empty      lipgloss.Style
	Header     lipgloss.Style
	Cell       lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	Submitted  lipgloss.Style
}

func defaultTheme() theme {
	chip := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#A4A9FF"))
	return theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF61D8")),
		Search:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#9F7AEA")).Padding(0, 1),
		Chip:       chip,
		ChipActive: chip.Foreground(lipgloss.Color("#1B1C30")).Background(lipgloss.Color("#7AF7FF")).Bold(true),
		Lesson:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFC857")),
		Empty:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C6F93")),
		Header:     lipgloss.NewStyle().Bold(true).Underline(true),
		Cell:       lipgloss.NewStyle(),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1B1C30")).Background(lipgloss.Color("#FF61D8")).Padding(0, 1),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B5D")).Bold(true),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6F93")),
		Submitted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7AF7FF")),
	}
}
