package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	t.Cleanup(func() { SetCurrency("USD") })

	tests := []struct {
		currency string
		in       string
		want     string
	}{
		{"USD", "0", "$0.00"},
		{"USD", "1234.5", "$1,234.50"},
		{"USD", "-42.005", "-$42.01"},
		{"USD", "1000000", "$1,000,000.00"},
		{"EUR", "33.333", "€33.33"},
		{"chf", "10", "CHF 10.00"},
	}
	for _, tt := range tests {
		SetCurrency(tt.currency)
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Fatalf("FormatMoney(%s, %s) = %q, want %q", tt.currency, tt.in, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	tests := map[int]string{
		0:  "today",
		1:  "tomorrow",
		6:  "in 6d",
		-1: "1d overdue",
		-9: "9d overdue",
	}
	for in, want := range tests {
		if got := FormatDays(in); got != want {
			t.Fatalf("FormatDays(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMonths(t *testing.T) {
	tests := map[int]string{
		1:  "1 month",
		3:  "3 months",
		12: "1y",
		14: "1y 2m",
		-2: "2 months ago",
	}
	for in, want := range tests {
		if got := FormatMonths(in); got != want {
			t.Fatalf("FormatMonths(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(-1234567); got != "-1,234,567" {
		t.Fatalf("FormatNumber = %q, want -1,234,567", got)
	}
}

func TestRenderTableAlignsStyledCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows: [][]string{
			{"Rent", "$1,000.00"},
			{"---"},
			{Status("overdue"), "€5.00"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Fatalf("line %d width = %d, want %d:\n%s", i, lipgloss.Width(l), w, out)
		}
	}
}

func TestRenderProgressBarClamps(t *testing.T) {
	full := RenderProgressBar(150, 10)
	if !strings.Contains(full, strings.Repeat("█", 10)) || !strings.Contains(full, "150.0%") {
		t.Fatalf("RenderProgressBar(150) = %q", full)
	}
	if strings.Contains(RenderProgressBar(-5, 10), "█") {
		t.Fatal("negative progress rendered filled cells")
	}
}
