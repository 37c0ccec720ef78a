package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/projection"
	"github.com/theirongolddev/fundwise/internal/tui/components"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// projectionMonths is the horizon of the goal detail chart.
const projectionMonths = 12

func (a App) renderGoalsTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	goals := a.snap.Goals
	if len(goals) == 0 {
		return components.ContentCard("Goals",
			mutedStyle.Render("No savings goals yet. Add one with `fundwise goals add`."), cw)
	}

	inner := components.CardInnerWidth(cw)
	labelW := min(24, inner/4)
	noteW := 28
	barW := max(inner-2-labelW-1-7-2-noteW, 10)

	lines := make([]string, 0, len(goals))
	for i, row := range goals {
		marker := "  "
		if i == a.goalCursor {
			marker = "▸ "
		}
		lines = append(lines, mutedStyle.Render(marker)+
			components.LabeledBar(row.Goal.Name, row.Progress.Percentage, goalNote(row), labelW, barW))
	}

	title := fmt.Sprintf("Goals (%d)", len(goals))
	return components.ContentCard(title, strings.Join(lines, "\n"), cw) + "\n" +
		a.renderGoalDetail(goals[a.goalCursor], cw)
}

// goalNote is the short ETA shown next to a goal's bar.
func goalNote(row pipeline.GoalRow) string {
	switch {
	case row.Goal.IsCompleted:
		return "funded"
	case !row.Estimate.Known:
		return cli.FormatMoney(row.Progress.Remaining) + " to go"
	case row.Estimate.MonthsRemaining <= 0:
		return "due " + cli.FormatDate(row.Estimate.Date)
	default:
		return fmt.Sprintf("~%s (%s)", cli.FormatDate(row.Estimate.Date), cli.FormatMonths(row.Estimate.MonthsRemaining))
	}
}

func (a App) renderGoalDetail(row pipeline.GoalRow, cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	g := row.Goal
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
	}

	fields := []string{
		field("Saved", fmt.Sprintf("%s of %s", cli.FormatMoney(g.CurrentAmount), cli.FormatMoney(g.TargetAmount))),
		field("Remaining", cli.FormatMoney(row.Progress.Remaining)),
	}
	if g.MonthlyAllocation != nil {
		fields = append(fields, field("Allocation", cli.FormatMoney(*g.MonthlyAllocation)+"/mo"))
	}
	if g.TargetDate != nil {
		fields = append(fields, field("Target date", cli.FormatDate(*g.TargetDate)))
	}
	if row.Estimate.Known {
		fields = append(fields, field("Estimate", fmt.Sprintf("%s (by %s)", cli.FormatDate(row.Estimate.Date), row.Estimate.Basis)))
	}
	if g.CompletedAt != nil {
		fields = append(fields, field("Completed", g.CompletedAt.Local().Format("2006-01-02")))
	}
	body := strings.Join(fields, "\n")

	if g.MonthlyAllocation != nil && g.MonthlyAllocation.IsPositive() && !g.IsCompleted {
		sim, err := projection.Simulate(g, a.snap.Today, *g.MonthlyAllocation, projectionMonths)
		if err == nil {
			balances := make([]float64, len(sim.Points))
			for i, p := range sim.Points {
				balances[i] = p.Balance.InexactFloat64()
			}
			body += "\n\n" + labelStyle.Render(fmt.Sprintf("Next %d months at %s/mo", projectionMonths, cli.FormatMoney(sim.Monthly))) +
				"\n" + components.ProjectionChart(balances, g.TargetAmount.InexactFloat64(), components.CardInnerWidth(cw), 6)
		}
	}

	return components.ContentCard(g.Name, body, cw)
}
