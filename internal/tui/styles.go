package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor = lipgloss.Color("#7C3AED")
	buyColor     = lipgloss.Color("#10B981")
	sellColor    = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	textColor    = lipgloss.Color("#F9FAFB")
	borderColor  = lipgloss.Color("#374151")
	warnColor    = lipgloss.Color("#F59E0B")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	bidStyle    = lipgloss.NewStyle().Foreground(buyColor)
	askStyle    = lipgloss.NewStyle().Foreground(sellColor)
	bidBarStyle = lipgloss.NewStyle().Foreground(buyColor).Faint(true)
	askBarStyle = lipgloss.NewStyle().Foreground(sellColor).Faint(true)
	valueStyle  = lipgloss.NewStyle().Foreground(textColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle  = lipgloss.NewStyle().Foreground(sellColor).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(warnColor)
)
