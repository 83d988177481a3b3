package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/notify"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Amber
	colorError     = lipgloss.Color("196") // Red
)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for dates and subjects.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorMuted)

// DateBandHeader style for date band labels (e.g., "Today", "This Week").
var DateBandHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1).
	Padding(0, 1)

// Tab styles for the tab row.
var (
	ActiveTab = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(colorPrimary).
			Padding(0, 1)

	InactiveTab = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Padding(0, 1)
)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for per-category errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// ConfirmStyle for the delete prompt.
var ConfirmStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorError).
	Bold(true).
	Padding(0, 1)

// PreviewTitle heads the preview pane.
var PreviewTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle heads overlay sections.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// toastStyle picks the toast colour for a notice level.
func toastStyle(l notify.Level) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch l {
	case notify.Success:
		return base.Foreground(colorSuccess)
	case notify.Warning:
		return base.Foreground(colorWarning)
	case notify.Error:
		return base.Foreground(colorError)
	}
	return base.Foreground(colorSecondary)
}

// tagBadge renders a tag in its own colours.
func tagBadge(t content.Tag) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Color)).
		Background(lipgloss.Color("236")).
		Padding(0, 1).
		MarginRight(1).
		Render(t.Label)
}
