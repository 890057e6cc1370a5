package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for the TUI
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Violet
	secondaryColor = lipgloss.Color("#10B981") // Emerald
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red

	fgColor     = lipgloss.Color("#CDD6F4") // Light foreground
	mutedColor  = lipgloss.Color("#6C7086") // Muted text
	borderColor = lipgloss.Color("#45475A") // Border
)

// titleStyle creates the main title style
var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor).
	Padding(0, 1)

// subtitleStyle creates the subtitle/description style
var subtitleStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

// helpStyle creates the style for help text at the bottom
var helpStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	MarginTop(1)

// boxStyle creates a bordered box style
var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(borderColor).
	Padding(1, 2)

// errorStyle creates style for error messages
var errorStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true)

// headerStyle creates the header/banner style
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(fgColor).
	Background(primaryColor).
	Padding(0, 2).
	MarginBottom(1)

// progressStyle creates the style for progress indicators
var progressStyle = lipgloss.NewStyle().
	Foreground(accentColor)

// GetTitleStyle returns the title style
func GetTitleStyle() lipgloss.Style {
	return titleStyle
}

// GetSubtitleStyle returns the subtitle style
func GetSubtitleStyle() lipgloss.Style {
	return subtitleStyle
}

// GetHelpStyle returns the help style
func GetHelpStyle() lipgloss.Style {
	return helpStyle
}

// GetBoxStyle returns the box style
func GetBoxStyle() lipgloss.Style {
	return boxStyle
}

// GetErrorStyle returns the error style
func GetErrorStyle() lipgloss.Style {
	return errorStyle
}

// GetHeaderStyle returns the header style
func GetHeaderStyle() lipgloss.Style {
	return headerStyle
}

// GetProgressStyle returns the progress style
func GetProgressStyle() lipgloss.Style {
	return progressStyle
}
