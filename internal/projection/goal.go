// Package projection derives read-only projections from savings goals:
// progress, estimated completion and what-if schedules.
package projection

import (
	"errors"
	"math"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonFiniteAmount is returned for NaN or infinite contribution amounts.
	ErrNonFiniteAmount = errors.New("amount must be a finite number")

	// ErrInvalidHorizon is returned when a simulation horizon is not positive.
	ErrInvalidHorizon = errors.New("simulation horizon must be at least one month")

	// ErrNegativeAllocation is returned for a negative what-if allocation.
	ErrNegativeAllocation = errors.New("monthly allocation must not be negative")
)

var hundred = decimal.NewFromInt(100)

// Progress is the completion ratio of a goal.
type Progress struct {
	Percentage float64         // 0 when the target is not positive
	Remaining  decimal.Decimal // negative when the goal is overshot
}

// Basis says which goal field an estimate came from.
type Basis string

const (
	BasisNone       Basis = "none"
	BasisAllocation Basis = "allocation"
	BasisTargetDate Basis = "target_date"
)

// Estimate is an estimated completion date. Known is false when no estimate
// can be made; Date and MonthsRemaining are meaningless in that case.
type Estimate struct {
	Known           bool
	Date            model.Date
	MonthsRemaining int
	Basis           Basis
}

// Unknown is the "no estimate" value.
var Unknown = Estimate{Basis: BasisNone}

// ComputeProgress returns the percentage complete and the remaining amount.
func ComputeProgress(g model.Goal) Progress {
	p := Progress{Remaining: g.TargetAmount.Sub(g.CurrentAmount)}
	if g.TargetAmount.IsPositive() {
		p.Percentage = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).InexactFloat64()
	}
	return p
}

// IsComplete reports whether the current amount has reached the target.
func IsComplete(g model.Goal) bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// EstimateCompletion projects when a goal will be reached.
//
// A positive monthly allocation wins: months = ceil(remaining / allocation),
// counted in calendar months from today. Otherwise the target date passes
// through, with the calendar-month distance from today (negative when past).
// Completed goals and goals without a positive target have no estimate.
func EstimateCompletion(g model.Goal, today model.Date) Estimate {
	if !g.TargetAmount.IsPositive() || IsComplete(g) {
		return Unknown
	}

	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if g.MonthlyAllocation != nil && g.MonthlyAllocation.IsPositive() && remaining.IsPositive() {
		months := MonthsToCover(remaining, *g.MonthlyAllocation)
		return Estimate{
			Known:           true,
			Date:            today.AddMonths(months),
			MonthsRemaining: months,
			Basis:           BasisAllocation,
		}
	}

	if g.TargetDate != nil && !g.TargetDate.IsZero() {
		return Estimate{
			Known:           true,
			Date:            *g.TargetDate,
			MonthsRemaining: model.MonthsBetween(today, *g.TargetDate),
			Basis:           BasisTargetDate,
		}
	}

	return Unknown
}

// MonthsToCover returns ceil(remaining / perMonth) using exact integer
// division. perMonth must be positive.
func MonthsToCover(remaining, perMonth decimal.Decimal) int {
	if !remaining.IsPositive() {
		return 0
	}
	q, r := remaining.QuoRem(perMonth, 0)
	months := q.IntPart()
	if r.IsPositive() {
		months++
	}
	return int(months)
}

// ApplyContribution validates a UI-supplied amount and applies it. Negative
// amounts are corrections and are applied as-is.
func ApplyContribution(g model.Goal, amount float64, now time.Time) (model.Goal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return g, ErrNonFiniteAmount
	}
	return Contribute(g, decimal.NewFromFloat(amount), now), nil
}

// Contribute returns a copy of g with amount added and completion recomputed.
// CompletedAt is stamped on the first false->true transition only and is kept
// when a later correction drops the goal below target; only ResetProgress
// clears it.
func Contribute(g model.Goal, amount decimal.Decimal, now time.Time) model.Goal {
	next := g
	next.CurrentAmount = g.CurrentAmount.Add(amount)
	next.IsCompleted = IsComplete(next)
	next.UpdatedAt = now

	if next.IsCompleted && !g.IsCompleted && g.CompletedAt == nil {
		at := now
		next.CompletedAt = &at
	}
	return next
}

// ResetProgress zeroes the current amount and clears completion.
func ResetProgress(g model.Goal, now time.Time) model.Goal {
	next := g
	next.CurrentAmount = decimal.Zero
	next.IsCompleted = false
	next.CompletedAt = nil
	next.UpdatedAt = now
	return next
}
