package main

import "github.com/charmbracelet/lipgloss"

const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	stepStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	labelStyle  = lipgloss.NewStyle().Foreground(colorText)
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText).Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(colorSurface1)
	hintStyle   = lipgloss.NewStyle().Foreground(colorOverlay1).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle   = lipgloss.NewStyle().Foreground(colorPeach)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	footerStyle = lipgloss.NewStyle().Foreground(colorOverlay1).MarginTop(1)
	slotStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
	slotFocus   = slotStyle.BorderForeground(colorLavender)
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)
