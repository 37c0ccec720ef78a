package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the loaded snapshot.
type StatusInfo struct {
	Hints       string
	Flash       string // one-shot message from the last action
	FlashError  bool
	Refreshing  bool
	AutoRefresh bool
	LastRefresh time.Time
	Now         time.Time
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	flashStyle := lipgloss.NewStyle().
		Foreground(t.Funded).
		Background(t.Surface)
	if info.FlashError {
		flashStyle = flashStyle.Foreground(t.Overdue)
	}

	left := " " + info.Hints
	if info.Flash != "" {
		left += "  " + flashStyle.Render(info.Flash)
	}

	var right string
	switch {
	case info.Refreshing:
		right = "refreshing… "
	case !info.LastRefresh.IsZero():
		age := info.Now.Sub(info.LastRefresh).Truncate(time.Second)
		right = fmt.Sprintf("updated %s ago ", age)
	}
	if info.AutoRefresh {
		right = "[auto] " + right
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
