package main

import "github.com/charmbracelet/lipgloss"

// Status styling for the CLI's progress announcements: which form field
// crack injects through, whether the result will echo, the response banner,
// and failures worth
// standing out from the payload text itself (which always prints unstyled
// so it can be piped or copied verbatim).
var (
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
)
