package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7DCFFF")
	muted  = lipgloss.Color("#6B7089")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F111A")).Background(accent).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(muted)
	labelStyle     = lipgloss.NewStyle().Foreground(accent).Bold(true)
	boardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
	narrationStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#C0CAF5"))
	placeholder    = lipgloss.NewStyle().Foreground(muted).Italic(true).Padding(1, 2)
	currentDot     = lipgloss.NewStyle().Foreground(accent).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(muted)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
)
