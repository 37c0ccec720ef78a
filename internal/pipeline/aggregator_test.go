package pipeline

import (
	"errors"
	"testing"

	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func obligation(t *testing.T, name, amount string, f model.Frequency, due string) model.Obligation {
	t.Helper()
	return model.Obligation{
		ID:          model.NewID(),
		Name:        name,
		Amount:      decimal.RequireFromString(amount),
		Frequency:   f,
		NextDueDate: mustDate(t, due),
	}
}

func goal(name, target, current string) model.Goal {
	return model.Goal{
		ID:            model.NewID(),
		Name:          name,
		TargetAmount:  decimal.RequireFromString(target),
		CurrentAmount: decimal.RequireFromString(current),
	}
}

func TestAggregate(t *testing.T) {
	today := mustDate(t, "2024-03-20")
	obs := []model.Obligation{
		obligation(t, "insurance", "150", model.FrequencyQuarterly, "2024-03-15"),
		obligation(t, "rent", "1000", model.FrequencyMonthly, "2024-03-20"),
		obligation(t, "phone", "50", model.FrequencyMonthly, "2024-03-27"),
		obligation(t, "domain", "120", model.FrequencyYearly, "2024-09-01"),
	}
	goals := []model.Goal{
		goal("car", "1000", "1000"),
		goal("trip", "1000", "500"),
	}

	stats, err := Aggregate(obs, goals, today, 7)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if stats.OverdueCount != 1 || stats.OverdueAmount.String() != "150" {
		t.Fatalf("overdue = %d/%s, want 1/150", stats.OverdueCount, stats.OverdueAmount)
	}
	if stats.UpcomingCount != 2 || stats.UpcomingAmount.String() != "1050" {
		t.Fatalf("upcoming = %d/%s, want 2/1050", stats.UpcomingCount, stats.UpcomingAmount)
	}
	// 50 + 1000 + 50 + 10
	if stats.MonthlyTotal.String() != "1110" {
		t.Fatalf("MonthlyTotal = %s, want 1110", stats.MonthlyTotal)
	}
	if stats.YearlyTotal.String() != "13320" {
		t.Fatalf("YearlyTotal = %s, want 13320", stats.YearlyTotal)
	}
	if stats.GoalsCompleted != 1 {
		t.Fatalf("GoalsCompleted = %d, want 1", stats.GoalsCompleted)
	}
	if stats.SavedPercent != 75 {
		t.Fatalf("SavedPercent = %v, want 75", stats.SavedPercent)
	}
}

func TestAggregate_InvalidFrequency(t *testing.T) {
	obs := []model.Obligation{obligation(t, "bad", "10", "weekly", "2024-03-01")}
	_, err := Aggregate(obs, nil, mustDate(t, "2024-03-01"), 7)
	if !errors.Is(err, recurring.ErrInvalidFrequency) {
		t.Fatalf("Aggregate() error = %v, want ErrInvalidFrequency", err)
	}
}

func TestAggregateDue(t *testing.T) {
	today := mustDate(t, "2024-03-20")
	obs := []model.Obligation{
		obligation(t, "later", "10", model.FrequencyMonthly, "2024-05-01"),
		obligation(t, "late", "10", model.FrequencyMonthly, "2024-03-01"),
		obligation(t, "soon", "10", model.FrequencyMonthly, "2024-03-22"),
	}

	rows, err := AggregateDue(obs, nil, today, 7)
	if err != nil {
		t.Fatalf("AggregateDue() error = %v", err)
	}
	want := []struct {
		name   string
		status recurring.Status
		days   int
	}{
		{"late", recurring.StatusOverdue, -19},
		{"soon", recurring.StatusUpcoming, 2},
		{"later", recurring.StatusOther, 42},
	}
	for i, w := range want {
		r := rows[i]
		if r.Obligation.Name != w.name || r.Status != w.status || r.DaysUntil != w.days {
			t.Fatalf("rows[%d] = %s/%s/%d, want %s/%s/%d",
				i, r.Obligation.Name, r.Status, r.DaysUntil, w.name, w.status, w.days)
		}
		if r.Category != Uncategorized {
			t.Fatalf("rows[%d].Category = %q, want %q", i, r.Category, Uncategorized)
		}
	}
}

func TestAggregateCategories(t *testing.T) {
	housing := model.NewID()
	names := map[ulid.ULID]string{housing: "Housing"}

	rent := obligation(t, "rent", "900", model.FrequencyMonthly, "2024-03-01")
	rent.CategoryID = &housing
	gym := obligation(t, "gym", "100", model.FrequencyMonthly, "2024-03-01")

	cats, err := AggregateCategories([]model.Obligation{gym, rent}, names)
	if err != nil {
		t.Fatalf("AggregateCategories() error = %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("len = %d, want 2", len(cats))
	}
	if cats[0].Name != "Housing" || cats[0].SharePercent != 90 {
		t.Fatalf("cats[0] = %s %.1f%%, want Housing 90%%", cats[0].Name, cats[0].SharePercent)
	}
	if cats[1].Name != Uncategorized || cats[1].CategoryID != "" {
		t.Fatalf("cats[1] = %+v, want uncategorized", cats[1])
	}
}

func TestAggregateGoals_Ordering(t *testing.T) {
	today := mustDate(t, "2024-03-20")
	rows := AggregateGoals([]model.Goal{
		goal("done", "100", "100"),
		goal("low", "100", "10"),
		goal("high", "100", "80"),
	}, today)

	got := []string{rows[0].Goal.Name, rows[1].Goal.Name, rows[2].Goal.Name}
	want := []string{"high", "low", "done"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if rows[0].Progress.Remaining.String() != "20" {
		t.Fatalf("Remaining = %s, want 20", rows[0].Progress.Remaining)
	}
}

func TestFilterByCategory(t *testing.T) {
	housing := model.NewID()
	names := map[ulid.ULID]string{housing: "Housing"}
	rent := obligation(t, "rent", "900", model.FrequencyMonthly, "2024-03-01")
	rent.CategoryID = &housing
	gym := obligation(t, "gym", "100", model.FrequencyMonthly, "2024-03-01")
	obs := []model.Obligation{rent, gym}

	if got := FilterByCategory(obs, names, "housing"); len(got) != 1 || got[0].Name != "rent" {
		t.Fatalf("FilterByCategory(housing) = %v", got)
	}
	if got := FilterByCategory(obs, names, Uncategorized); len(got) != 1 || got[0].Name != "gym" {
		t.Fatalf("FilterByCategory(uncategorized) = %v", got)
	}
	if got := FilterByName(obs, "RE"); len(got) != 1 || got[0].Name != "rent" {
		t.Fatalf("FilterByName(RE) = %v", got)
	}
}

type fakeSource struct {
	obs   []model.Obligation
	goals []model.Goal
	cats  []model.Category
	err   error
}

func (f fakeSource) ListObligations() ([]model.Obligation, error) { return f.obs, f.err }
func (f fakeSource) ListGoals() ([]model.Goal, error)             { return f.goals, nil }
func (f fakeSource) ListCategories() ([]model.Category, error)    { return f.cats, nil }

func TestLoad(t *testing.T) {
	cat := model.Category{ID: model.NewID(), Name: "Utilities"}
	res, err := Load(fakeSource{
		obs:  []model.Obligation{obligation(t, "power", "80", model.FrequencyMonthly, "2024-03-25")},
		cats: []model.Category{cat},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.CategoryNames[cat.ID] != "Utilities" {
		t.Fatalf("CategoryNames = %v", res.CategoryNames)
	}

	stats, err := res.Summary(mustDate(t, "2024-03-20"), 7)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if stats.UpcomingCount != 1 {
		t.Fatalf("UpcomingCount = %d, want 1", stats.UpcomingCount)
	}

	boom := errors.New("boom")
	if _, err := Load(fakeSource{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want wrapped boom", err)
	}
}

func TestBuildSnapshot(t *testing.T) {
	today := mustDate(t, "2024-03-20")
	snap, err := BuildSnapshot(fakeSource{
		obs: []model.Obligation{
			obligation(t, "rent", "1000", model.FrequencyMonthly, "2024-03-01"),
			obligation(t, "water", "60", model.FrequencyQuarterly, "2024-03-22"),
		},
		goals: []model.Goal{goal("bike", "900", "300")},
	}, today, 7)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snap.Stats.OverdueCount != 1 || snap.Stats.UpcomingCount != 1 {
		t.Fatalf("stats = %+v", snap.Stats)
	}
	if len(snap.Due) != 2 || snap.Due[0].Obligation.Name != "rent" {
		t.Fatalf("Due = %+v", snap.Due)
	}
	if len(snap.Categories) != 1 || snap.Categories[0].Name != Uncategorized {
		t.Fatalf("Categories = %+v", snap.Categories)
	}
	if len(snap.Goals) != 1 {
		t.Fatalf("Goals = %+v", snap.Goals)
	}

	if _, err := BuildSnapshot(fakeSource{}, today, -1); err == nil {
		t.Fatal("BuildSnapshot() with negative window should fail")
	}
}
