package projection

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func goal(target, current string) model.Goal {
	return model.Goal{
		ID:            model.NewID(),
		Name:          "emergency fund",
		TargetAmount:  dec(target),
		CurrentAmount: dec(current),
	}
}

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress(goal("200", "50"))
	require.InDelta(t, 25.0, p.Percentage, 1e-9)
	require.Equal(t, "150", p.Remaining.String())
}

func TestComputeProgress_ZeroTarget(t *testing.T) {
	p := ComputeProgress(goal("0", "5"))
	require.Equal(t, 0.0, p.Percentage)
	require.False(t, math.IsNaN(p.Percentage))
	require.Equal(t, "-5", p.Remaining.String())
}

func TestComputeProgress_Overshoot(t *testing.T) {
	p := ComputeProgress(goal("100", "150"))
	require.InDelta(t, 150.0, p.Percentage, 1e-9)
	require.True(t, p.Remaining.IsNegative())
}

func TestEstimateCompletion_AllocationUsesCeil(t *testing.T) {
	g := goal("1000", "550") // remaining 450
	alloc := dec("200")
	g.MonthlyAllocation = &alloc
	today := model.MustParseDate("2024-01-31")

	est := EstimateCompletion(g, today)
	require.True(t, est.Known)
	require.Equal(t, BasisAllocation, est.Basis)
	require.Equal(t, 3, est.MonthsRemaining)
	require.Equal(t, "2024-04-30", est.Date.String())
}

func TestEstimateCompletion_ExactMultiple(t *testing.T) {
	g := goal("600", "0")
	alloc := dec("200")
	g.MonthlyAllocation = &alloc

	est := EstimateCompletion(g, model.MustParseDate("2024-01-15"))
	require.Equal(t, 3, est.MonthsRemaining)
	require.Equal(t, "2024-04-15", est.Date.String())
}

func TestEstimateCompletion_AllocationBeatsTargetDate(t *testing.T) {
	g := goal("1000", "0")
	alloc := dec("500")
	target := model.MustParseDate("2030-01-01")
	g.MonthlyAllocation = &alloc
	g.TargetDate = &target

	est := EstimateCompletion(g, model.MustParseDate("2024-01-01"))
	require.Equal(t, BasisAllocation, est.Basis)
	require.Equal(t, 2, est.MonthsRemaining)
}

func TestEstimateCompletion_TargetDatePassThrough(t *testing.T) {
	g := goal("1000", "100")
	zero := decimal.Zero
	target := model.MustParseDate("2024-12-01")
	g.MonthlyAllocation = &zero
	g.TargetDate = &target

	est := EstimateCompletion(g, model.MustParseDate("2024-03-20"))
	require.True(t, est.Known)
	require.Equal(t, BasisTargetDate, est.Basis)
	require.Equal(t, target, est.Date)
	require.Equal(t, 9, est.MonthsRemaining)
}

func TestEstimateCompletion_TargetDateInPast(t *testing.T) {
	g := goal("1000", "100")
	target := model.MustParseDate("2023-11-01")
	g.TargetDate = &target

	est := EstimateCompletion(g, model.MustParseDate("2024-02-10"))
	require.True(t, est.Known)
	require.Equal(t, -3, est.MonthsRemaining)
}

func TestEstimateCompletion_Unknown(t *testing.T) {
	today := model.MustParseDate("2024-03-20")

	require.Equal(t, Unknown, EstimateCompletion(goal("1000", "100"), today))
	require.Equal(t, Unknown, EstimateCompletion(goal("0", "0"), today))
	require.Equal(t, Unknown, EstimateCompletion(goal("-10", "0"), today))

	done := goal("100", "100")
	alloc := dec("10")
	done.MonthlyAllocation = &alloc
	require.Equal(t, Unknown, EstimateCompletion(done, today))
	require.False(t, EstimateCompletion(done, today).Known)
}

func TestApplyContribution_CompletesGoal(t *testing.T) {
	g := goal("100", "90")
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	done, err := ApplyContribution(g, 10, now)
	require.NoError(t, err)
	require.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)
	require.Equal(t, now, *done.CompletedAt)
	require.Equal(t, "100", done.CurrentAmount.String())

	// input untouched
	require.False(t, g.IsCompleted)
	require.Nil(t, g.CompletedAt)
	require.Equal(t, "90", g.CurrentAmount.String())
}

func TestApplyContribution_NegativeKeepsCompletedAt(t *testing.T) {
	first := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	done, err := ApplyContribution(goal("100", "90"), 10, first)
	require.NoError(t, err)

	corrected, err := ApplyContribution(done, -5, later)
	require.NoError(t, err)
	require.Equal(t, "95", corrected.CurrentAmount.String())
	require.False(t, corrected.IsCompleted)
	require.NotNil(t, corrected.CompletedAt, "completedAt is kept until an explicit reset")
	require.Equal(t, first, *corrected.CompletedAt)

	again, err := ApplyContribution(corrected, 10, later.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, again.IsCompleted)
	require.Equal(t, first, *again.CompletedAt, "completedAt sticks to the first completion")
}

func TestResetProgress_ClearsCompletedAt(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	done, err := ApplyContribution(goal("100", "90"), 10, now)
	require.NoError(t, err)

	reset := ResetProgress(done, now)
	require.True(t, reset.CurrentAmount.IsZero())
	require.False(t, reset.IsCompleted)
	require.Nil(t, reset.CompletedAt)

	refilled, err := ApplyContribution(reset, 100, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), *refilled.CompletedAt)
}

func TestApplyContribution_RejectsNonFinite(t *testing.T) {
	g := goal("100", "10")
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ApplyContribution(g, amount, time.Now())
		require.ErrorIs(t, err, ErrNonFiniteAmount)
	}
}

func TestApplyContribution_NegativeNotClamped(t *testing.T) {
	g, err := ApplyContribution(goal("100", "10"), -25, time.Now())
	require.NoError(t, err)
	require.Equal(t, "-15", g.CurrentAmount.String())
}

func TestMonthsToCover(t *testing.T) {
	require.Equal(t, 3, MonthsToCover(dec("450"), dec("200")))
	require.Equal(t, 2, MonthsToCover(dec("400"), dec("200")))
	require.Equal(t, 1, MonthsToCover(dec("0.01"), dec("200")))
	require.Equal(t, 0, MonthsToCover(dec("0"), dec("200")))
	require.Equal(t, 4, MonthsToCover(dec("100"), dec("33.33")))
}
