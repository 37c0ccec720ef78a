package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-01-15", 1, "2024-02-15"},
		{"2024-11-30", 3, "2025-02-28"},
		{"2024-12-31", 1, "2025-01-31"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-01-10", -1, "2023-12-10"},
	}

	for _, tt := range tests {
		got := MustParseDate(tt.from).AddMonths(tt.months)
		if got.String() != tt.want {
			t.Errorf("%s + %d months = %s, want %s", tt.from, tt.months, got, tt.want)
		}
	}
}

func TestAddYears_LeapDay(t *testing.T) {
	got := MustParseDate("2024-02-29").AddYears(1)
	if got.String() != "2025-02-28" {
		t.Fatalf("2024-02-29 + 1y = %s, want 2025-02-28", got)
	}
	got = MustParseDate("2024-02-29").AddYears(4)
	if got.String() != "2028-02-29" {
		t.Fatalf("2024-02-29 + 4y = %s, want 2028-02-29", got)
	}
}

func TestCompare(t *testing.T) {
	a := MustParseDate("2024-03-15")
	b := MustParseDate("2024-03-20")

	if !a.Before(b) || a.After(b) {
		t.Fatalf("%s should be before %s", a, b)
	}
	if a.Compare(a) != 0 {
		t.Fatal("date should compare equal to itself")
	}
	if got := a.DaysUntil(b); got != 5 {
		t.Fatalf("DaysUntil = %d, want 5", got)
	}
	if got := b.DaysUntil(a); got != -5 {
		t.Fatalf("DaysUntil reversed = %d, want -5", got)
	}
}

func TestDaysUntil_AcrossDST(t *testing.T) {
	// Dates are zone-free, so a DST change in the local zone cannot shift the count.
	a := MustParseDate("2024-03-09")
	b := MustParseDate("2024-03-11")
	if got := a.DaysUntil(b); got != 2 {
		t.Fatalf("DaysUntil = %d, want 2", got)
	}
}

func TestDaysUntil_Centuries(t *testing.T) {
	a := MustParseDate("1700-01-01")
	b := MustParseDate("2100-01-01")
	if got := a.DaysUntil(b); got != 146097 {
		t.Fatalf("DaysUntil = %d, want 146097", got)
	}
	if got := b.DaysUntil(a); got != -146097 {
		t.Fatalf("DaysUntil reversed = %d, want -146097", got)
	}
}

func TestMonthsBetween(t *testing.T) {
	if got := MonthsBetween(MustParseDate("2024-01-31"), MustParseDate("2024-04-01")); got != 3 {
		t.Fatalf("MonthsBetween = %d, want 3", got)
	}
	if got := MonthsBetween(MustParseDate("2024-06-01"), MustParseDate("2023-12-25")); got != -6 {
		t.Fatalf("MonthsBetween = %d, want -6", got)
	}
}

func TestDateOf_TruncatesTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 3, 20, 23, 30, 0, 0, loc)
	if got := DateOf(ts).String(); got != "2024-03-20" {
		t.Fatalf("DateOf = %s, want 2024-03-20", got)
	}
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Due Date `json:"due"`
	}
	data, err := json.Marshal(wrapper{Due: MustParseDate("2024-06-15")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"due":"2024-06-15"}` {
		t.Fatalf("json = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"due":"2025-01-02"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Due != NewDate(2025, time.January, 2) {
		t.Fatalf("decoded %v", w.Due)
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan("2024-02-29"); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("scanned %s", d)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("scan nil: %v, zero=%v", err, d.IsZero())
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}
