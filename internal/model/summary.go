// Package model defines domain types for fundwise obligations, goals and summaries.
package model

import "github.com/shopspring/decimal"

// SummaryStats holds the top-level dashboard aggregate for one day.
type SummaryStats struct {
	Today      Date
	WindowDays int

	Obligations    int
	OverdueCount   int
	OverdueAmount  decimal.Decimal
	UpcomingCount  int
	UpcomingAmount decimal.Decimal
	MonthlyTotal   decimal.Decimal
	YearlyTotal    decimal.Decimal

	Goals          int
	GoalsCompleted int
	TotalSaved     decimal.Decimal
	TotalTarget    decimal.Decimal
	SavedPercent   float64
}

// CategoryStats holds the monthly-equivalent spend for one category.
type CategoryStats struct {
	CategoryID   string // empty for uncategorized
	Name         string
	Obligations  int
	MonthlyTotal decimal.Decimal
	SharePercent float64
}

// Dataset is everything fundwise stores, used for import and export.
type Dataset struct {
	Categories    []Category
	Obligations   []Obligation
	Payments      []Payment
	Goals         []Goal
	Contributions []Contribution
}
