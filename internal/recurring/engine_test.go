package recurring

import (
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func obligation(name string, amount int64, f model.Frequency, due string) model.Obligation {
	return model.Obligation{
		ID:          model.NewID(),
		Name:        name,
		Amount:      decimal.NewFromInt(amount),
		Frequency:   f,
		NextDueDate: model.MustParseDate(due),
	}
}

func names(obs []model.Obligation) []string {
	out := make([]string, 0, len(obs))
	for _, o := range obs {
		out = append(out, o.Name)
	}
	return out
}

func TestPartition_DueTodayIsUpcoming(t *testing.T) {
	today := model.MustParseDate("2024-03-20")
	obs := []model.Obligation{obligation("rent", 1200, model.FrequencyMonthly, "2024-03-20")}

	for _, window := range []int{0, 1, 7, 30} {
		b, err := Partition(obs, today, window)
		require.NoError(t, err)
		require.Empty(t, b.Overdue, "window %d", window)
		require.Equal(t, []string{"rent"}, names(b.Upcoming), "window %d", window)
		require.Empty(t, b.Other, "window %d", window)
	}
}

func TestPartition_PastIsOverdueOnly(t *testing.T) {
	today := model.MustParseDate("2024-03-20")
	obs := []model.Obligation{
		obligation("yesterday", 10, model.FrequencyMonthly, "2024-03-19"),
		obligation("last-year", 10, model.FrequencyYearly, "2023-03-20"),
	}

	b, err := Partition(obs, today, 400)
	require.NoError(t, err)
	require.Equal(t, []string{"yesterday", "last-year"}, names(b.Overdue))
	require.Empty(t, b.Upcoming)
	require.Empty(t, b.Other)
}

func TestPartition_WindowBoundary(t *testing.T) {
	today := model.MustParseDate("2024-03-20")
	obs := []model.Obligation{
		obligation("edge", 1, model.FrequencyMonthly, "2024-03-27"),
		obligation("beyond", 1, model.FrequencyMonthly, "2024-03-28"),
	}

	b, err := Partition(obs, today, DefaultWindowDays)
	require.NoError(t, err)
	require.Equal(t, []string{"edge"}, names(b.Upcoming))
	require.Equal(t, []string{"beyond"}, names(b.Other))
}

func TestPartition_StableOrder(t *testing.T) {
	today := model.MustParseDate("2024-03-20")
	obs := []model.Obligation{
		obligation("c", 1, model.FrequencyMonthly, "2024-03-10"),
		obligation("a", 1, model.FrequencyMonthly, "2024-03-22"),
		obligation("b", 1, model.FrequencyMonthly, "2024-03-01"),
		obligation("d", 1, model.FrequencyMonthly, "2024-03-21"),
	}

	b, err := Partition(obs, today, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, names(b.Overdue))
	require.Equal(t, []string{"a", "d"}, names(b.Upcoming))
	require.Equal(t, 4, b.Len())
}

func TestPartition_NegativeWindow(t *testing.T) {
	_, err := Partition(nil, model.MustParseDate("2024-03-20"), -1)
	require.ErrorIs(t, err, ErrNegativeWindow)
}

func TestPartition_InvalidFrequencyFailsFast(t *testing.T) {
	obs := []model.Obligation{
		obligation("ok", 1, model.FrequencyMonthly, "2024-03-01"),
		obligation("bad", 1, model.Frequency("weekly"), "2024-03-01"),
	}

	_, err := Partition(obs, model.MustParseDate("2024-03-20"), 7)
	require.ErrorIs(t, err, ErrInvalidFrequency)

	var fe *FrequencyError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, model.Frequency("weekly"), fe.Frequency)
	require.Equal(t, "bad", fe.Obligation)
}

func TestAdvance_MonthlyClamping(t *testing.T) {
	o := obligation("gym", 40, model.FrequencyMonthly, "2024-01-31")
	next, err := Advance(o)
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", next.String())

	o.NextDueDate = model.MustParseDate("2024-03-31")
	next, err = Advance(o)
	require.NoError(t, err)
	require.Equal(t, "2024-04-30", next.String())
}

func TestAdvance_Quarterly(t *testing.T) {
	o := obligation("water", 90, model.FrequencyQuarterly, "2023-11-30")
	next, err := Advance(o)
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", next.String())
}

func TestAdvance_YearlyLeapDay(t *testing.T) {
	o := obligation("domain", 15, model.FrequencyYearly, "2024-02-29")
	next, err := Advance(o)
	require.NoError(t, err)
	require.Equal(t, "2025-02-28", next.String())
}

func TestAdvance_TwiceMovesTwoPeriods(t *testing.T) {
	for _, f := range model.Frequencies {
		o := obligation("x", 1, f, "2024-05-15")
		first, err := Advance(o)
		require.NoError(t, err)
		o.NextDueDate = first
		second, err := Advance(o)
		require.NoError(t, err)

		months, _ := PeriodMonths(f)
		require.Equal(t, model.MustParseDate("2024-05-15").AddMonths(2*months), second, string(f))
		require.True(t, second.After(first), string(f))
	}
}

func TestAdvance_InvalidFrequency(t *testing.T) {
	_, err := Advance(obligation("x", 1, "", "2024-05-15"))
	require.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestMarkPaid_DoesNotMutateInput(t *testing.T) {
	o := obligation("insurance", 50, model.FrequencyQuarterly, "2024-03-15")
	paidAt := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	paid, payment, err := MarkPaid(o, paidAt)
	require.NoError(t, err)
	require.Equal(t, "2024-03-15", o.NextDueDate.String())
	require.Equal(t, "2024-06-15", paid.NextDueDate.String())
	require.Equal(t, o.ID, payment.ObligationID)
	require.Equal(t, "2024-03-15", payment.DueDate.String())
	require.True(t, payment.Amount.Equal(decimal.NewFromInt(50)))
	require.Equal(t, paidAt, payment.PaidAt)
}

func TestMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		f    model.Frequency
		want string
	}{
		{model.FrequencyMonthly, "120"},
		{model.FrequencyQuarterly, "40"},
		{model.FrequencyYearly, "10"},
	}
	for _, tt := range tests {
		got, err := MonthlyEquivalent(obligation("x", 120, tt.f, "2024-01-01"))
		require.NoError(t, err)
		require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s: got %s", tt.f, got)
	}

	_, err := MonthlyEquivalent(obligation("x", 120, "daily", "2024-01-01"))
	require.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestMonthlyTotal(t *testing.T) {
	obs := []model.Obligation{
		obligation("rent", 1000, model.FrequencyMonthly, "2024-01-01"),
		obligation("car", 300, model.FrequencyQuarterly, "2024-01-01"),
		obligation("tax", 1200, model.FrequencyYearly, "2024-01-01"),
	}
	total, err := MonthlyTotal(obs)
	require.NoError(t, err)
	require.Equal(t, "1200", total.String())
}

func TestTotalsByCategory(t *testing.T) {
	housing := model.NewID()
	rent := obligation("rent", 900, model.FrequencyMonthly, "2024-01-01")
	rent.CategoryID = &housing
	tax := obligation("property tax", 1200, model.FrequencyYearly, "2024-06-01")
	tax.CategoryID = &housing
	gym := obligation("gym", 30, model.FrequencyMonthly, "2024-01-05")

	totals, err := TotalsByCategory([]model.Obligation{rent, gym, tax})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, housing, totals[0].CategoryID)
	require.Equal(t, 2, totals[0].Obligations)
	require.Equal(t, "1000", totals[0].Monthly.String())
	require.Equal(t, ulid.ULID{}, totals[1].CategoryID)
	require.Equal(t, "30", totals[1].Monthly.String())
}

func TestEndToEnd_QuarterlyOverdueThenAdvance(t *testing.T) {
	o := obligation("insurance", 50, model.FrequencyQuarterly, "2024-03-15")
	today := model.MustParseDate("2024-03-20")

	b, err := Partition([]model.Obligation{o}, today, DefaultWindowDays)
	require.NoError(t, err)
	require.Len(t, b.Overdue, 1)
	require.Equal(t, -5, DaysUntilDue(o, today))

	next, err := Advance(b.Overdue[0])
	require.NoError(t, err)
	require.Equal(t, "2024-06-15", next.String())
}

func TestSortByDueDate(t *testing.T) {
	obs := []model.Obligation{
		obligation("b", 1, model.FrequencyMonthly, "2024-03-10"),
		obligation("a", 1, model.FrequencyMonthly, "2024-03-01"),
		obligation("c", 1, model.FrequencyMonthly, "2024-03-10"),
	}
	sorted := SortByDueDate(obs)
	require.Equal(t, []string{"a", "b", "c"}, names(sorted))
	require.Equal(t, []string{"b", "a", "c"}, names(obs))
}
