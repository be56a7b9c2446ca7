package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used across panes.
type Theme struct {
	Add      lipgloss.Style
	Del      lipgloss.Style
	Meta     lipgloss.Style
	Hunk     lipgloss.Style
	Divider  lipgloss.Style
	Selected lipgloss.Style
	Faint    lipgloss.Style
	Error    lipgloss.Style
	Title    lipgloss.Style
}

func defaultTheme() Theme {
	return Theme{
		Add:      lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Del:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Hunk:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		Divider:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Selected: lipgloss.NewStyle().Reverse(true),
		Faint:    lipgloss.NewStyle().Faint(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Title:    lipgloss.NewStyle().Bold(true),
	}
}
