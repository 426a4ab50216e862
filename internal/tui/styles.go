package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#E07A5F")
	colorWarm    = lipgloss.Color("#F2CC8F")
	colorSuccess = lipgloss.Color("#81B29A")
	colorMuted   = lipgloss.Color("#8D8D8D")
	colorError   = lipgloss.Color("#D1495B")
)

type styles struct {
	eyebrow, title, lede          lipgloss.Style
	panel, panelFocused, dropping lipgloss.Style
	panelTitle, hint              lipgloss.Style
	fileName, fileSub             lipgloss.Style
	status, statusError           lipgloss.Style
	button, buttonBusy            lipgloss.Style
	pill                          lipgloss.Style
	result, placeholder           lipgloss.Style
	help                          lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	panelBorder := lipgloss.RoundedBorder()

	return styles{
		eyebrow:      base.Copy().Foreground(colorAccent).Bold(true),
		title:        base.Copy().Bold(true),
		lede:         base.Copy().Foreground(colorMuted),
		panel:        base.Copy().Border(panelBorder).BorderForeground(colorMuted).Padding(0, 1),
		panelFocused: base.Copy().Border(panelBorder).BorderForeground(colorAccent).Padding(0, 1),
		dropping:     base.Copy().Border(lipgloss.DoubleBorder()).BorderForeground(colorWarm).Padding(0, 1),
		panelTitle:   base.Copy().Bold(true),
		hint:         base.Copy().Faint(true),
		fileName:     base.Copy().Bold(true).Foreground(colorWarm),
		fileSub:      base.Copy().Foreground(colorMuted),
		status:       base.Copy().Foreground(colorWarm),
		statusError:  base.Copy().Foreground(colorError),
		button:       base.Copy().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1),
		buttonBusy:   base.Copy().Foreground(colorMuted).Padding(0, 1),
		pill:         base.Copy().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorSuccess).Padding(0, 1),
		result:       base.Copy().Foreground(colorSuccess),
		placeholder:  base.Copy().Faint(true),
		help:         base.Copy().Faint(true),
	}
}
