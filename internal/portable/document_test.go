package portable

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sample = `
version: 1
currency: USD
categories:
  - name: Housing
obligations:
  - name: Rent
    amount: "1250.00"
    frequency: monthly
    next_due: 2024-04-01
    category: housing
  - name: Car insurance
    amount: "300"
    frequency: quarterly
    next_due: 2024-03-15
    category: Transport
    payments:
      - amount: "300"
        due_date: 2023-12-15
        paid_at: 2023-12-14T10:00:00Z
goals:
  - name: Emergency fund
    target: "5000"
    current: "5000"
    monthly_allocation: "250"
    contributions:
      - amount: "5000"
        note: initial
        created_at: 2024-01-01T00:00:00Z
`

func TestDecodeToModel(t *testing.T) {
	doc, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, doc.Obligations, 2)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ds, err := ToModel(doc, nil, now)
	require.NoError(t, err)

	// "housing" reuses the declared category, "Transport" is created
	require.Len(t, ds.Categories, 2)
	require.Equal(t, "Housing", ds.Categories[0].Name)
	require.Equal(t, ds.Categories[0].ID, *ds.Obligations[0].CategoryID)
	require.Equal(t, "Transport", ds.Categories[1].Name)

	require.Equal(t, model.FrequencyQuarterly, ds.Obligations[1].Frequency)
	require.Equal(t, "2024-03-15", ds.Obligations[1].NextDueDate.String())
	require.Len(t, ds.Payments, 1)
	require.Equal(t, ds.Obligations[1].ID, ds.Payments[0].ObligationID)

	require.Len(t, ds.Goals, 1)
	g := ds.Goals[0]
	require.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletedAt)
	require.Equal(t, now, *g.CompletedAt)
	require.Len(t, ds.Contributions, 1)
	require.Equal(t, g.ID, ds.Contributions[0].GoalID)
}

func TestToModel_ReusesExistingCategory(t *testing.T) {
	doc, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	housing := model.NewID()
	ds, err := ToModel(doc, map[string]ulid.ULID{"Housing": housing}, time.Now())
	require.NoError(t, err)
	require.Len(t, ds.Categories, 1)
	require.Equal(t, housing, *ds.Obligations[0].CategoryID)
}

func TestDecode_ValidationErrors(t *testing.T) {
	bad := `
obligations:
  - name: Gym
    amount: "-30"
    frequency: weekly
    next_due: 03/01/2024
goals:
  - target: "abc"
`
	_, err := Decode(strings.NewReader(bad))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidDocument))

	msg := err.Error()
	require.Contains(t, msg, "obligations[0].amount")
	require.Contains(t, msg, "obligations[0].frequency")
	require.Contains(t, msg, "obligations[0].next_due")
	require.Contains(t, msg, "goals[0].name: is required")
	require.Contains(t, msg, "goals[0].target")
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("obligations:\n  - name: x\n    amount: \"1\"\n    interval: monthly\n"))
	require.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cat := model.Category{ID: model.NewID(), Name: "Utilities"}
	alloc := decimal.NewFromInt(50)
	target := model.MustParseDate("2025-06-30")
	o := model.Obligation{
		ID:          model.NewID(),
		Name:        "Water",
		Amount:      decimal.RequireFromString("42.10"),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: model.MustParseDate("2024-03-28"),
		CategoryID:  &cat.ID,
	}
	g := model.Goal{
		ID:                model.NewID(),
		Name:              "Bike",
		TargetAmount:      decimal.NewFromInt(900),
		CurrentAmount:     decimal.NewFromInt(120),
		MonthlyAllocation: &alloc,
		TargetDate:        &target,
	}
	ds := model.Dataset{
		Categories:  []model.Category{cat},
		Obligations: []model.Obligation{o},
		Goals:       []model.Goal{g},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FromModel(ds, "EUR")))
	require.Contains(t, buf.String(), "next_due: \"2024-03-28\"")

	doc, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, "EUR", doc.Currency)

	back, err := ToModel(doc, nil, time.Now())
	require.NoError(t, err)
	require.Equal(t, o.ID, back.Obligations[0].ID)
	require.True(t, o.Amount.Equal(back.Obligations[0].Amount))
	require.Equal(t, cat.ID, *back.Obligations[0].CategoryID)
	require.Equal(t, g.ID, back.Goals[0].ID)
	require.Equal(t, target, *back.Goals[0].TargetDate)
	require.False(t, back.Goals[0].IsCompleted)
	require.Nil(t, back.Goals[0].CompletedAt)
}

func TestValidateRecord(t *testing.T) {
	err := ValidateRecord(Obligation{Name: "Gym", Amount: "0", Frequency: "monthly", NextDue: "2024-03-01"})
	require.ErrorIs(t, err, ErrInvalidRecord)
	require.Contains(t, err.Error(), "amount: must be a positive amount")

	ok := Goal{Name: "Bike", Target: "900", MonthlyAllocation: "50"}
	require.NoError(t, ValidateRecord(ok))

	g, err := GoalToModel(ok, time.Now())
	require.NoError(t, err)
	require.True(t, g.CurrentAmount.IsZero())
	require.Equal(t, "50", g.MonthlyAllocation.String())
}
