// Package recurring classifies obligations by due date and advances them when paid.
// Every function is pure: callers own the slices passed in and persist results.
package recurring

import (
	"sort"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the default upcoming look-ahead.
const DefaultWindowDays = 7

// Status is where an obligation falls relative to today.
type Status int

const (
	StatusOther Status = iota
	StatusUpcoming
	StatusOverdue
)

func (s Status) String() string {
	switch s {
	case StatusOverdue:
		return "overdue"
	case StatusUpcoming:
		return "upcoming"
	default:
		return "later"
	}
}

// Buckets is the result of Partition. Each slice keeps input order.
type Buckets struct {
	Overdue  []model.Obligation
	Upcoming []model.Obligation
	Other    []model.Obligation
}

// Len returns the total number of obligations across buckets.
func (b Buckets) Len() int {
	return len(b.Overdue) + len(b.Upcoming) + len(b.Other)
}

// Partition splits obligations into overdue (due strictly before today),
// upcoming (due within [today, today+windowDays]) and other.
func Partition(obligations []model.Obligation, today model.Date, windowDays int) (Buckets, error) {
	if windowDays < 0 {
		return Buckets{}, ErrNegativeWindow
	}

	var b Buckets
	for _, o := range obligations {
		st, err := Classify(o, today, windowDays)
		if err != nil {
			return Buckets{}, err
		}
		switch st {
		case StatusOverdue:
			b.Overdue = append(b.Overdue, o)
		case StatusUpcoming:
			b.Upcoming = append(b.Upcoming, o)
		default:
			b.Other = append(b.Other, o)
		}
	}
	return b, nil
}

// Classify returns the status of a single obligation.
func Classify(o model.Obligation, today model.Date, windowDays int) (Status, error) {
	if windowDays < 0 {
		return StatusOther, ErrNegativeWindow
	}
	if !o.Frequency.IsValid() {
		return StatusOther, frequencyError(o)
	}

	due := o.NextDueDate
	switch {
	case due.Before(today):
		return StatusOverdue, nil
	case !due.After(today.AddDays(windowDays)):
		return StatusUpcoming, nil
	default:
		return StatusOther, nil
	}
}

// PeriodMonths returns the length of one period in calendar months.
func PeriodMonths(f model.Frequency) (int, error) {
	switch f {
	case model.FrequencyMonthly:
		return 1, nil
	case model.FrequencyQuarterly:
		return 3, nil
	case model.FrequencyYearly:
		return 12, nil
	}
	return 0, &FrequencyError{Frequency: f}
}

// Advance returns the due date one period after o.NextDueDate. Month-end days
// clamp to the last valid day of the target month.
func Advance(o model.Obligation) (model.Date, error) {
	months, err := PeriodMonths(o.Frequency)
	if err != nil {
		return model.Date{}, frequencyError(o)
	}
	return o.NextDueDate.AddMonths(months), nil
}

// MarkPaid returns a copy of o advanced by one period, and the payment record
// for the settled due date. Persisting both is the caller's job.
func MarkPaid(o model.Obligation, paidAt time.Time) (model.Obligation, model.Payment, error) {
	next, err := Advance(o)
	if err != nil {
		return o, model.Payment{}, err
	}

	payment := model.Payment{
		ID:           model.NewID(),
		ObligationID: o.ID,
		Amount:       o.Amount,
		DueDate:      o.NextDueDate,
		PaidAt:       paidAt,
	}

	paid := o
	paid.NextDueDate = next
	paid.UpdatedAt = paidAt
	return paid, payment, nil
}

// MonthlyEquivalent normalizes an obligation's amount to a monthly magnitude.
// Used for display totals only.
func MonthlyEquivalent(o model.Obligation) (decimal.Decimal, error) {
	months, err := PeriodMonths(o.Frequency)
	if err != nil {
		return decimal.Zero, frequencyError(o)
	}
	if months == 1 {
		return o.Amount, nil
	}
	return o.Amount.Div(decimal.NewFromInt(int64(months))), nil
}

// MonthlyTotal sums the monthly equivalents of all obligations.
func MonthlyTotal(obligations []model.Obligation) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range obligations {
		m, err := MonthlyEquivalent(o)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(m)
	}
	return total, nil
}

// CategoryTotal is the monthly-equivalent spend of one category.
// CategoryID is the zero ULID for uncategorized obligations.
type CategoryTotal struct {
	CategoryID  ulid.ULID
	Obligations int
	Monthly     decimal.Decimal
}

// TotalsByCategory groups monthly equivalents by category, in order of first
// appearance.
func TotalsByCategory(obligations []model.Obligation) ([]CategoryTotal, error) {
	var out []CategoryTotal
	index := make(map[ulid.ULID]int)
	for _, o := range obligations {
		m, err := MonthlyEquivalent(o)
		if err != nil {
			return nil, err
		}
		var key ulid.ULID
		if o.CategoryID != nil {
			key = *o.CategoryID
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CategoryTotal{CategoryID: key, Monthly: decimal.Zero})
		}
		out[i].Obligations++
		out[i].Monthly = out[i].Monthly.Add(m)
	}
	return out, nil
}

// Sum adds up the nominal amounts of obligations.
func Sum(obligations []model.Obligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range obligations {
		total = total.Add(o.Amount)
	}
	return total
}

// DaysUntilDue returns the signed number of days from today to the due date.
// Negative means overdue.
func DaysUntilDue(o model.Obligation, today model.Date) int {
	return today.DaysUntil(o.NextDueDate)
}

// SortByDueDate returns a copy sorted by due date, earliest first. Ties keep
// input order.
func SortByDueDate(obligations []model.Obligation) []model.Obligation {
	out := make([]model.Obligation, len(obligations))
	copy(out, obligations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(out[j].NextDueDate)
	})
	return out
}
