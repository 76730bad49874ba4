package tui

import "github.com/charmbracelet/lipgloss"

// styles groups the lipgloss styles derived from one brand color.
type styles struct {
	Title   lipgloss.Style
	Podium  lipgloss.Style
	Rank    lipgloss.Style
	Score   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Initial lipgloss.Style
}

func newStyles(brand string) styles {
	c := lipgloss.Color(brand)
	return styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).
			Background(c).Padding(0, 1),
		Podium: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(c).Padding(0, 1).Align(lipgloss.Center),
		Rank:    lipgloss.NewStyle().Bold(true).Foreground(c),
		Score:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56")).Bold(true),
		Initial: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(c).Padding(0, 1),
	}
}
