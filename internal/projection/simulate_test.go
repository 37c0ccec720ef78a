package projection

import (
	"testing"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/stretchr/testify/require"
)

func TestSimulate_ReachesTarget(t *testing.T) {
	g := goal("1000", "550")
	today := model.MustParseDate("2024-01-31")

	sim, err := Simulate(g, today, dec("200"), 6)
	require.NoError(t, err)
	require.Len(t, sim.Points, 6)
	require.True(t, sim.Reached)
	require.Equal(t, 3, sim.ReachIn)
	require.Equal(t, "2024-04-30", sim.ReachAt.String())
	require.Equal(t, "2024-02-29", sim.Points[0].Date.String())
	require.Equal(t, "750", sim.Points[0].Balance.String())
	require.InDelta(t, 115.0, sim.Points[2].Percentage, 1e-9)
	require.True(t, sim.Shortfall.IsZero())

	// agrees with the allocation-based estimate
	sim200 := dec("200")
	g.MonthlyAllocation = &sim200
	est := EstimateCompletion(g, today)
	require.Equal(t, est.MonthsRemaining, sim.ReachIn)
	require.Equal(t, est.Date, sim.ReachAt)
}

func TestSimulate_Shortfall(t *testing.T) {
	sim, err := Simulate(goal("1000", "0"), model.MustParseDate("2024-01-01"), dec("100"), 3)
	require.NoError(t, err)
	require.False(t, sim.Reached)
	require.Equal(t, "700", sim.Shortfall.String())
}

func TestSimulate_AlreadyComplete(t *testing.T) {
	today := model.MustParseDate("2024-01-01")
	sim, err := Simulate(goal("100", "120"), today, dec("0"), 1)
	require.NoError(t, err)
	require.True(t, sim.Reached)
	require.Equal(t, today, sim.ReachAt)
	require.Equal(t, 0, sim.ReachIn)
}

func TestSimulate_InvalidInput(t *testing.T) {
	_, err := Simulate(goal("100", "0"), model.MustParseDate("2024-01-01"), dec("10"), 0)
	require.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = Simulate(goal("100", "0"), model.MustParseDate("2024-01-01"), dec("-10"), 3)
	require.ErrorIs(t, err, ErrNegativeAllocation)
}
