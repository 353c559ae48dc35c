package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"

	bordersAndPaddingWidth = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreenDim))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	textRedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
	hintStyle    = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.Color(colorPurple))

	complimentStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPurple)).
			Foreground(lipgloss.Color(colorWhite)).
			Padding(1, 2)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

// Status values for TextStatusColorize.
const (
	statusUnknown = iota
	statusOK
	statusFailed
)

// TextStatusColorize renders text green for statusOK, red for statusFailed
// and gray otherwise.
func TextStatusColorize(text string, status int) string {
	switch status {
	case statusOK:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim)).Render(text)
	case statusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim)).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)).Render(text)
	}
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

// contentWidth is the usable width inside the main panel, with a floor for
// tiny or not yet reported terminals.
func (m model) contentWidth() int {
	w := m.width - 2*bordersAndPaddingWidth
	if w < 40 {
		return 40
	}
	if w > 100 {
		return 100
	}
	return w
}
