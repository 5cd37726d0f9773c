package ui

import "github.com/charmbracelet/lipgloss"

var (
	headingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	successColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	pathColor    = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
)

// styles holds every style a renderer uses; the plain set renders nothing
type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	path    lipgloss.Style
}

func terminalStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Foreground(headingColor).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
		success: lipgloss.NewStyle().Foreground(successColor).Bold(true),
		failure: lipgloss.NewStyle().Foreground(errorColor).Bold(true),
		warning: lipgloss.NewStyle().Foreground(warningColor),
		path:    lipgloss.NewStyle().Foreground(pathColor),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{title: plain, muted: plain, success: plain, failure: plain, warning: plain, path: plain}
}
