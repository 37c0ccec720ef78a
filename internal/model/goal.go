package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Goal is a savings target with optional pacing and/or deadline.
type Goal struct {
	ID                ulid.ULID
	Name              string
	TargetAmount      decimal.Decimal
	CurrentAmount     decimal.Decimal
	MonthlyAllocation *decimal.Decimal
	TargetDate        *Date
	IsCompleted       bool
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Contribution records one "add funds" event. Amount may be negative for
// corrections.
type Contribution struct {
	ID        ulid.ULID
	GoalID    ulid.ULID
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
}
