package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette for the search screen. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	ErrorForeground  lipgloss.Color
	QuotaOK          lipgloss.Color
	QuotaLow         lipgloss.Color
	HelpText         lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("57"),
	SelectedForeground: lipgloss.Color("231"),
	HeaderForeground:   lipgloss.Color("141"),
	ErrorForeground:    lipgloss.Color("203"),
	QuotaOK:            lipgloss.Color("114"),
	QuotaLow:           lipgloss.Color("214"),
	HelpText:           lipgloss.Color("241"),
}

// lowQuotaFraction is the share of the daily limit below which the
// counter switches to the warning color.
const lowQuotaFraction = 0.1

// QuotaColor returns the counter color for left of limit.
func (theme Theme) QuotaColor(left, limit int) lipgloss.Color {
	if limit <= 0 || float64(left) < float64(limit)*lowQuotaFraction {
		return theme.QuotaLow
	}
	return theme.QuotaOK
}
