// SPDX-License-Identifier: MIT
// Package tui formats batch results for the terminal.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"audiograph/internal/batch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#A00000", Dark: "#FF8080"}).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(0, 1)
)

// Summary renders the end-of-run counts.
func Summary(stats batch.Stats, elapsed time.Duration) string {
	failed := infoStyle.Render(fmt.Sprintf("%d", stats.Failed))
	if stats.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprintf("%d", stats.Failed))
	}
	rows := []string{
		titleStyle.Render("audiograph"),
		row("Files", infoStyle.Render(fmt.Sprintf("%d", stats.Total))),
		row("Rendered", highlightStyle.Render(fmt.Sprintf("%d", stats.Rendered))),
		row("Skipped", infoStyle.Render(fmt.Sprintf("%d", stats.Skipped))),
		row("Failed", failed),
	}
	if p := stats.Pending(); p > 0 {
		rows = append(rows, row("Interrupted", errorStyle.Render(fmt.Sprintf("%d", p))))
	}
	rows = append(rows, row("Elapsed", infoStyle.Render(elapsed.Round(time.Millisecond).String())))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return fmt.Sprintf("%-12s %s", label, value)
}

// ScanEntry is one line of a scan report.
type ScanEntry struct {
	Path   string
	Action batch.Action
}

// ScanReport lists files relative to root with the action a run would take.
func ScanReport(root string, entries []ScanEntry) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d audio files under %s", len(entries), root)))
	b.WriteByte('\n')

	counts := map[batch.Action]int{}
	for _, e := range entries {
		counts[e.Action]++
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			rel = e.Path
		}
		style := infoStyle
		if e.Action != batch.ActionSkip {
			style = highlightStyle
		}
		fmt.Fprintf(&b, "%s  %s\n", style.Render(fmt.Sprintf("%-8s", e.Action)), rel)
	}
	fmt.Fprintf(&b, "%s render, %s partial, %s skip\n",
		highlightStyle.Render(fmt.Sprintf("%d", counts[batch.ActionRender])),
		highlightStyle.Render(fmt.Sprintf("%d", counts[batch.ActionPartial])),
		infoStyle.Render(fmt.Sprintf("%d", counts[batch.ActionSkip])))
	return b.String()
}
