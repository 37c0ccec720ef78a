// Package pipeline loads snapshots from the store and aggregates them into the
// rows and totals shown by the CLI, TUI and daemon.
package pipeline

import (
	"sort"
	"strings"

	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/projection"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Uncategorized is the display name for obligations without a category.
const Uncategorized = "uncategorized"

var hundred = decimal.NewFromInt(100)

// Aggregate computes the dashboard summary for today.
func Aggregate(obligations []model.Obligation, goals []model.Goal, today model.Date, windowDays int) (model.SummaryStats, error) {
	stats := model.SummaryStats{
		Today:       today,
		WindowDays:  windowDays,
		Obligations: len(obligations),
		Goals:       len(goals),
	}

	b, err := recurring.Partition(obligations, today, windowDays)
	if err != nil {
		return stats, err
	}
	stats.OverdueCount = len(b.Overdue)
	stats.OverdueAmount = recurring.Sum(b.Overdue)
	stats.UpcomingCount = len(b.Upcoming)
	stats.UpcomingAmount = recurring.Sum(b.Upcoming)

	monthly, err := recurring.MonthlyTotal(obligations)
	if err != nil {
		return stats, err
	}
	stats.MonthlyTotal = monthly
	stats.YearlyTotal = monthly.Mul(decimal.NewFromInt(12))

	stats.TotalSaved = decimal.Zero
	stats.TotalTarget = decimal.Zero
	for _, g := range goals {
		if projection.IsComplete(g) {
			stats.GoalsCompleted++
		}
		stats.TotalSaved = stats.TotalSaved.Add(g.CurrentAmount)
		stats.TotalTarget = stats.TotalTarget.Add(g.TargetAmount)
	}
	if stats.TotalTarget.IsPositive() {
		stats.SavedPercent = stats.TotalSaved.Div(stats.TotalTarget).Mul(hundred).InexactFloat64()
	}

	return stats, nil
}

// DueRow is one obligation annotated for display.
type DueRow struct {
	Obligation model.Obligation
	Status     recurring.Status
	DaysUntil  int
	Monthly    decimal.Decimal
	Category   string
}

// AggregateDue annotates every obligation with its status and sorts by due date.
func AggregateDue(obligations []model.Obligation, names map[ulid.ULID]string, today model.Date, windowDays int) ([]DueRow, error) {
	if windowDays < 0 {
		return nil, recurring.ErrNegativeWindow
	}

	sorted := recurring.SortByDueDate(obligations)
	rows := make([]DueRow, 0, len(sorted))
	for _, o := range sorted {
		st, err := recurring.Classify(o, today, windowDays)
		if err != nil {
			return nil, err
		}
		m, err := recurring.MonthlyEquivalent(o)
		if err != nil {
			return nil, err
		}
		rows = append(rows, DueRow{
			Obligation: o,
			Status:     st,
			DaysUntil:  recurring.DaysUntilDue(o, today),
			Monthly:    m,
			Category:   categoryName(o.CategoryID, names),
		})
	}
	return rows, nil
}

// AggregateCategories computes per-category monthly spend, largest first.
func AggregateCategories(obligations []model.Obligation, names map[ulid.ULID]string) ([]model.CategoryStats, error) {
	totals, err := recurring.TotalsByCategory(obligations)
	if err != nil {
		return nil, err
	}

	grand := decimal.Zero
	for _, t := range totals {
		grand = grand.Add(t.Monthly)
	}

	out := make([]model.CategoryStats, 0, len(totals))
	for _, t := range totals {
		cs := model.CategoryStats{
			Name:         Uncategorized,
			Obligations:  t.Obligations,
			MonthlyTotal: t.Monthly,
		}
		if t.CategoryID != (ulid.ULID{}) {
			id := t.CategoryID
			cs.CategoryID = id.String()
			cs.Name = categoryName(&id, names)
		}
		if grand.IsPositive() {
			cs.SharePercent = t.Monthly.Div(grand).Mul(hundred).InexactFloat64()
		}
		out = append(out, cs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlyTotal.GreaterThan(out[j].MonthlyTotal)
	})
	return out, nil
}

// GoalRow is one goal with its progress and completion estimate.
type GoalRow struct {
	Goal     model.Goal
	Progress projection.Progress
	Estimate projection.Estimate
}

// AggregateGoals computes progress for each goal. Open goals come first,
// closest to done at the top; completed goals follow in input order.
func AggregateGoals(goals []model.Goal, today model.Date) []GoalRow {
	rows := make([]GoalRow, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, GoalRow{
			Goal:     g,
			Progress: projection.ComputeProgress(g),
			Estimate: projection.EstimateCompletion(g, today),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := projection.IsComplete(rows[i].Goal), projection.IsComplete(rows[j].Goal)
		if ci != cj {
			return !ci
		}
		if ci {
			return false
		}
		return rows[i].Progress.Percentage > rows[j].Progress.Percentage
	})
	return rows
}

// FilterByName returns obligations whose name contains the substring.
func FilterByName(obligations []model.Obligation, name string) []model.Obligation {
	if name == "" {
		return obligations
	}
	var out []model.Obligation
	for _, o := range obligations {
		if containsIgnoreCase(o.Name, name) {
			out = append(out, o)
		}
	}
	return out
}

// FilterByCategory returns obligations in the named category. The name
// "uncategorized" selects obligations without one.
func FilterByCategory(obligations []model.Obligation, names map[ulid.ULID]string, category string) []model.Obligation {
	if category == "" {
		return obligations
	}
	var out []model.Obligation
	for _, o := range obligations {
		if strings.EqualFold(categoryName(o.CategoryID, names), category) {
			out = append(out, o)
		}
	}
	return out
}

func categoryName(id *ulid.ULID, names map[ulid.ULID]string) string {
	if id == nil {
		return Uncategorized
	}
	if n, ok := names[*id]; ok {
		return n
	}
	return id.String()
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
