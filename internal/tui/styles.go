package tui

import "github.com/charmbracelet/lipgloss"

// Layout defaults.
const (
	defaultWidth  = 100
	defaultHeight = 30

	borderPadding = 4
	minHeight     = 3

	pickerWidth      = 32
	editorHeight     = 6
	chromeHeight     = 14
	maxColumnWidth   = 60
	minColumnWidth   = 6
	ellipsis         = "…"
	footerSeparator  = "  "
	statusSeparator  = " • "
	resultCountLabel = "results"
)

// Color palette.
var (
	ColorAccent  = lipgloss.Color("12")
	ColorSubtle  = lipgloss.Color("241")
	ColorLabel   = lipgloss.Color("245")
	ColorValue   = lipgloss.Color("15")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorInfo    = lipgloss.Color("39")
)

// Shared styles.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle  = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle  = lipgloss.NewStyle().Foreground(ColorValue)
	SubtleStyle = lipgloss.NewStyle().Foreground(ColorSubtle)
	InfoStyle   = lipgloss.NewStyle().Foreground(ColorInfo)

	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(ColorError).
				Padding(0, 1)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle)

	FocusedPaneStyle = PaneStyle.BorderForeground(ColorAccent)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorAccent).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorSubtle)

	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(ColorAccent)

	PickerSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	PickerActiveStyle   = lipgloss.NewStyle().Foreground(ColorInfo)
)

// paneStyle returns the border style for a pane.
func paneStyle(focused bool) lipgloss.Style {
	if focused {
		return FocusedPaneStyle
	}
	return PaneStyle
}
