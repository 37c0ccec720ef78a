package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// ProjectionChart renders monthly balances as vertical bars scaled against
// target. Bars at or above target use the funded color, and the target row
// is marked on the axis.
func ProjectionChart(balances []float64, target float64, width, height int) string {
	if len(balances) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(balances, theme.Active.Accent)
	}
	t := theme.Active

	ceiling := target
	for _, v := range balances {
		ceiling = max(ceiling, v)
	}
	if ceiling <= 0 {
		ceiling = 1
	}

	labelW := max(len(chartLabel(ceiling)), len(chartLabel(target))) + 1
	n := len(balances)
	barW := min(max((width-labelW-1-(n-1))/n, 1), 4)
	targetRow := int(math.Round(target / ceiling * float64(height)))

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	targetStyle := lipgloss.NewStyle().Foreground(t.Funded).Background(t.Surface)
	gapStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)

		switch row {
		case height:
			b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", labelW, chartLabel(ceiling))))
		case targetRow:
			b.WriteString(targetStyle.Render(fmt.Sprintf("%*s", labelW, chartLabel(target))))
		default:
			b.WriteString(gapStyle.Render(strings.Repeat(" ", labelW)))
		}
		if row == targetRow {
			b.WriteString(targetStyle.Render("┤"))
		} else {
			b.WriteString(axisStyle.Render("│"))
		}

		for i, v := range balances {
			if i > 0 {
				b.WriteString(gapStyle.Render(" "))
			}
			color := t.Accent
			if target > 0 && v >= target {
				color = t.Funded
			}
			style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
			switch {
			case v >= top:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * float64(len(blocks)-1))
				b.WriteString(style.Render(strings.Repeat(string(blocks[min(max(idx, 0), len(blocks)-1)]), barW)))
			default:
				b.WriteString(gapStyle.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", labelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", n*barW+n-1)))
	return b.String()
}

// ShareBar renders a horizontal bar for a 0-100 share.
func ShareBar(pct float64, width int) string {
	t := theme.Active
	filled := min(max(int(pct/100*float64(width)), 0), width)
	if pct > 0 && filled == 0 {
		filled = 1
	}
	return lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("░", width-filled))
}

func chartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
