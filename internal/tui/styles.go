package tui

import "github.com/charmbracelet/lipgloss"

// palette is a simple stylesheet built with named [lipgloss.Style] fields.
type palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	label  lipgloss.Style
	help   lipgloss.Style
	notice lipgloss.Style
}

var styles = palette{
	title:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1),
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
	err:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
	warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	label:  lipgloss.NewStyle().Foreground(lipgloss.Color("#8787FF")),
	help:   lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
	notice: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
}
