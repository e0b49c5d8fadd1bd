package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/cpcf/cfsgen/write"
)

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	path    lipgloss.Style
	muted   lipgloss.Style
	create  lipgloss.Style
	update  lipgloss.Style
	mkdir   lipgloss.Style
}

// newStyles binds the CLI styles to w so colour is only emitted when w is a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		path:    r.NewStyle().Foreground(lipgloss.Color("14")),
		muted:   r.NewStyle().Faint(true),
		create:  r.NewStyle().Foreground(lipgloss.Color("10")),
		update:  r.NewStyle().Foreground(lipgloss.Color("11")),
		mkdir:   r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

func (s styles) action(action string) string {
	label := fmt.Sprintf("%-6s", action)
	switch action {
	case write.ActionCreate:
		return s.create.Render(label)
	case write.ActionUpdate:
		return s.update.Render(label)
	case write.ActionMkdir:
		return s.mkdir.Render(label)
	}
	return label
}
