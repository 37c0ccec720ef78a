package projection

import (
	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/shopspring/decimal"
)

// SimPoint is the projected balance at the end of one simulated month.
type SimPoint struct {
	Month      int
	Date       model.Date
	Balance    decimal.Decimal
	Percentage float64
}

// Simulation is a what-if schedule for a hypothetical monthly allocation.
type Simulation struct {
	Monthly   decimal.Decimal
	Points    []SimPoint
	Reached   bool
	ReachAt   model.Date // first month whose balance meets the target
	ReachIn   int        // months until ReachAt
	Shortfall decimal.Decimal
}

// Simulate projects the goal balance month by month for the given horizon,
// adding monthly on each month boundary starting one month after today.
func Simulate(g model.Goal, today model.Date, monthly decimal.Decimal, months int) (Simulation, error) {
	if months < 1 {
		return Simulation{}, ErrInvalidHorizon
	}
	if monthly.IsNegative() {
		return Simulation{}, ErrNegativeAllocation
	}

	sim := Simulation{
		Monthly: monthly,
		Points:  make([]SimPoint, 0, months),
	}

	balance := g.CurrentAmount
	if g.TargetAmount.IsPositive() && IsComplete(g) {
		sim.Reached = true
		sim.ReachAt = today
	}

	for m := 1; m <= months; m++ {
		balance = balance.Add(monthly)
		pt := SimPoint{
			Month:   m,
			Date:    today.AddMonths(m),
			Balance: balance,
		}
		if g.TargetAmount.IsPositive() {
			pt.Percentage = balance.Div(g.TargetAmount).Mul(hundred).InexactFloat64()
			if !sim.Reached && balance.GreaterThanOrEqual(g.TargetAmount) {
				sim.Reached = true
				sim.ReachAt = pt.Date
				sim.ReachIn = m
			}
		}
		sim.Points = append(sim.Points, pt)
	}

	if !sim.Reached && g.TargetAmount.IsPositive() {
		sim.Shortfall = g.TargetAmount.Sub(balance)
	}
	return sim, nil
}
