package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Frequency is how often an obligation comes due.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Frequencies lists the recognized frequencies in display order.
var Frequencies = []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencyYearly}

// IsValid reports whether f is one of the recognized frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Obligation is a recurring expense tracked for due-date reminders.
type Obligation struct {
	ID          ulid.ULID
	Name        string
	Amount      decimal.Decimal
	Frequency   Frequency
	NextDueDate Date
	CategoryID  *ulid.ULID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Payment records one "mark as paid" event against an obligation.
type Payment struct {
	ID           ulid.ULID
	ObligationID ulid.ULID
	Amount       decimal.Decimal
	DueDate      Date // the due date that was settled
	PaidAt       time.Time
}

// Category is a spending category referenced by obligations.
type Category struct {
	ID   ulid.ULID
	Name string
}

// NewID returns a fresh time-ordered identifier.
func NewID() ulid.ULID {
	return ulid.Make()
}
