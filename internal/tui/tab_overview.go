package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/recurring"
	"github.com/theirongolddev/fundwise/internal/tui/components"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// maxDueSoonRows caps the "Due soon" card.
const maxDueSoonRows = 8

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	stats := a.snap.Stats
	var b strings.Builder

	// Row 1: Metric cards
	overdueColor := t.TextPrimary
	if stats.OverdueCount > 0 {
		overdueColor = t.Overdue
	}
	metrics := []components.Metric{
		{
			Label: "Overdue",
			Value: cli.FormatMoney(stats.OverdueAmount),
			Delta: plural(stats.OverdueCount, "bill"),
			Color: overdueColor,
		},
		{
			Label: fmt.Sprintf("Next %d days", stats.WindowDays),
			Value: cli.FormatMoney(stats.UpcomingAmount),
			Delta: plural(stats.UpcomingCount, "bill"),
			Color: t.Upcoming,
		},
		{
			Label: "Monthly",
			Value: cli.FormatMoney(stats.MonthlyTotal),
			Delta: cli.FormatMoney(stats.YearlyTotal) + "/yr",
		},
		{
			Label: "Saved",
			Value: cli.FormatMoney(stats.TotalSaved),
			Delta: fmt.Sprintf("%s of %s", cli.FormatPercent(stats.SavedPercent), cli.FormatMoney(stats.TotalTarget)),
			Color: t.Funded,
		},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	// Row 2: Due soon + categories
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Due soon", a.renderDueSoon(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Monthly by category", a.renderCategoryShares(components.CardInnerWidth(cw)), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Due soon", a.renderDueSoon(components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard("Monthly by category", a.renderCategoryShares(components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}
	b.WriteString("\n")

	// Row 3: Goals summary
	goalLine := fmt.Sprintf("%d goals, %d completed", stats.Goals, stats.GoalsCompleted)
	b.WriteString(components.ContentCard("Savings", goalLine+"\n"+
		components.ProgressBar(stats.SavedPercent, max(components.CardInnerWidth(cw)-8, 10)), cw))

	return b.String()
}

func (a App) renderDueSoon(width int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var lines []string
	for _, row := range a.snap.Due {
		if row.Status == recurring.StatusOther {
			continue
		}
		if len(lines) == maxDueSoonRows {
			lines = append(lines, mutedStyle.Render("…"))
			break
		}
		whenStyle := lipgloss.NewStyle().Foreground(t.StatusColor(row.Status)).Background(t.Surface)
		amount := cli.FormatMoney(row.Obligation.Amount)
		when := cli.FormatDays(row.DaysUntil)
		nameW := max(width-lipgloss.Width(amount)-14, 8)
		lines = append(lines, fmt.Sprintf("%s %s %s",
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(row.Obligation.Name, nameW))),
			nameStyle.Render(fmt.Sprintf("%*s", lipgloss.Width(amount), amount)),
			whenStyle.Render(fmt.Sprintf("%12s", when))))
	}
	if len(lines) == 0 {
		return mutedStyle.Render(fmt.Sprintf("Nothing due in the next %d days.", a.snap.WindowDays))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderCategoryShares(width int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(a.snap.Categories) == 0 {
		return mutedStyle.Render("No obligations yet.")
	}

	labelW := min(14, width/3)
	barW := max(width-labelW-16, 4)
	lines := make([]string, 0, len(a.snap.Categories))
	for _, c := range a.snap.Categories {
		lines = append(lines, nameStyle.Render(fmt.Sprintf("%-*s ", labelW, truncStr(c.Name, labelW)))+
			components.ShareBar(c.SharePercent, barW)+
			mutedStyle.Render(fmt.Sprintf(" %14s", cli.FormatMoney(c.MonthlyTotal))))
	}
	return strings.Join(lines, "\n")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
