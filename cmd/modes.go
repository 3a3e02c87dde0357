// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"strings"

	"termvis/internal/session"
	"termvis/internal/visualizer"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#25A065"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// PrintModes writes the registered visualizers, in cycle order, followed by
// the global key bindings.
func PrintModes(w io.Writer, r *visualizer.Registry) error {
	var sb strings.Builder

	sb.WriteString(headingStyle.Render("Visualizers"))
	sb.WriteString("\n")

	names, keys := r.Names(), r.Keys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for i, name := range names {
		key := keyStyle.Render(fmt.Sprintf("%-*s", width, keys[i]))
		fmt.Fprintf(&sb, "  %d. %s  %s\n", i+1, key, name)
	}

	sb.WriteString("\n")
	sb.WriteString(headingStyle.Render("Keys"))
	sb.WriteString("\n")
	for _, b := range session.Bindings() {
		h := b.Help()
		fmt.Fprintf(&sb, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-5s", h.Key)), dimStyle.Render(h.Desc))
	}
	sb.WriteString(dimStyle.Render("  Visualizers may bind further keys of their own."))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
