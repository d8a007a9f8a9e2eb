package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// field is one labelled line of a summary box.
type field struct {
	label string
	value any
}

func printSummary(w io.Writer, title string, fields ...field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}
	lines := []string{titleStyle.Render(title)}
	for _, f := range fields {
		label := dimStyle.Render(fmt.Sprintf("%-*s", width, f.label))
		lines = append(lines, fmt.Sprintf("%s  %v", label, f.value))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func printList(w io.Writer, style lipgloss.Style, mark string, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", style.Render(mark), item)
	}
}
