package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundwise/internal/cli"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/tui/components"
	"github.com/theirongolddev/fundwise/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// obligationsChrome is the card border, title and column header around the
// list, plus the detail card below it.
const obligationsChrome = 11

func (a App) renderObligationsTab(cw, h int) string {
	t := theme.Active
	rows := a.snap.Due
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(rows) == 0 {
		return components.ContentCard("Obligations",
			mutedStyle.Render("No obligations yet. Add one with `fundwise obligations add`."), cw)
	}

	inner := components.CardInnerWidth(cw)
	visible := max(h-obligationsChrome, 3)
	start := 0
	if a.dueCursor >= visible {
		start = a.dueCursor - visible + 1
	}
	end := min(start+visible, len(rows))

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	layout := obligationColumns(inner, a.isCompactLayout())

	var b strings.Builder
	b.WriteString(headerStyle.Render(layout.line("", "Name", "Amount", "Every", "Due", "When", "Category")))
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(a.renderObligationRow(rows[i], layout, i == a.dueCursor))
	}
	if end < len(rows) {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d more", len(rows)-end)))
	}

	title := fmt.Sprintf("Obligations (%d)", len(rows))
	return components.ContentCard(title, b.String(), cw) + "\n" +
		a.renderObligationDetail(rows[a.dueCursor], cw)
}

type columnLayout struct {
	name, amount, freq, due, when, cat int
}

func obligationColumns(width int, compact bool) columnLayout {
	l := columnLayout{amount: 12, freq: 10, due: 11, when: 12, cat: 14}
	if compact {
		l.cat = 0
	}
	l.name = max(width-2-l.amount-l.freq-l.due-l.when-l.cat-5, 10)
	return l
}

func (l columnLayout) line(marker, name, amount, freq, due, when, cat string) string {
	s := fmt.Sprintf("%-2s%-*s %*s %-*s %-*s %*s",
		marker,
		l.name, truncStr(name, l.name),
		l.amount, amount,
		l.freq, freq,
		l.due, due,
		l.when, when)
	if l.cat > 0 {
		s += fmt.Sprintf(" %-*s", l.cat, truncStr(cat, l.cat))
	}
	return s
}

func (a App) renderObligationRow(row pipeline.DueRow, l columnLayout, selected bool) string {
	t := theme.Active

	bg := t.Surface
	marker := ""
	if selected {
		bg = t.Highlight
		marker = "▸"
	}
	style := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg)
	statusStyle := lipgloss.NewStyle().Foreground(t.StatusColor(row.Status)).Background(bg)

	o := row.Obligation
	text := l.line(marker, o.Name, cli.FormatMoney(o.Amount), cli.FormatFrequency(o.Frequency),
		cli.FormatDate(o.NextDueDate), "", row.Category)

	// Recolor the "when" column by status; everything else stays plain.
	whenAt := 2 + l.name + 1 + l.amount + 1 + l.freq + 1 + l.due + 1
	runes := []rune(text)
	before := string(runes[:min(whenAt, len(runes))])
	after := ""
	if whenAt+l.when < len(runes) {
		after = string(runes[whenAt+l.when:])
	}
	return style.Render(before) +
		statusStyle.Render(fmt.Sprintf("%*s", l.when, cli.FormatDays(row.DaysUntil))) +
		style.Render(after)
}

func (a App) renderObligationDetail(row pipeline.DueRow, cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	statusStyle := lipgloss.NewStyle().Foreground(t.StatusColor(row.Status)).Background(t.Surface).Bold(true)

	o := row.Obligation
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
	}

	body := strings.Join([]string{
		field("Status", "") + statusStyle.Render(row.Status.String()),
		field("Monthly equiv.", cli.FormatMoney(row.Monthly)),
		field("Next due", fmt.Sprintf("%s (%s)", cli.FormatDate(o.NextDueDate), cli.FormatDays(row.DaysUntil))),
		field("ID", o.ID.String()),
	}, "\n")
	return components.ContentCard(o.Name, body, cw)
}
