package components

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForPct returns the bar color for a 0-100 goal percentage.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 100:
		return t.Funded
	case pct >= 50:
		return t.Accent
	case pct >= 25:
		return t.Info
	default:
		return t.Upcoming
	}
}

// ProgressBar renders a goal progress bar for a 0-100 percentage followed by
// the percentage. Values outside the range are drawn clamped but labeled as is.
func ProgressBar(pct float64, width int) string {
	t := theme.Active

	frac := min(max(pct/100, 0), 1)
	color := ColorForPct(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(frac) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

// LabeledBar renders a fixed-width label, then a progress bar, then a
// trailing note such as an amount or an ETA.
func LabeledBar(label string, pct float64, note string, labelW, barWidth int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(label, labelW))) +
		spaceStyle.Render(" ") +
		ProgressBar(pct, barWidth) +
		spaceStyle.Render("  ") +
		noteStyle.Render(note)
}

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
