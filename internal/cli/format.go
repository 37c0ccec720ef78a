// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// currency is the ISO code used by FormatMoney.
var currency = "USD"

// SetCurrency sets the currency used by FormatMoney.
func SetCurrency(code string) {
	if code != "" {
		currency = strings.ToUpper(code)
	}
}

// FormatMoney formats an amount with the active currency symbol, two decimals
// and thousands separators. e.g., 1234.5 -> "$1,234.50"
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err == nil {
		whole = FormatNumber(n)
	}

	prefix, ok := symbols[currency]
	if !ok {
		prefix = currency + " "
	}
	return sign + prefix + whole + "." + frac
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate formats a calendar date, or "-" when unset.
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

// FormatDays describes a signed day distance to a due date.
// e.g., 0 -> "today", 3 -> "in 3d", -5 -> "5d overdue"
func FormatDays(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days > 0:
		return fmt.Sprintf("in %dd", days)
	default:
		return fmt.Sprintf("%dd overdue", -days)
	}
}

// FormatMonths formats a month count. e.g., 1 -> "1 month", 14 -> "1y 2m"
func FormatMonths(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	var s string
	switch {
	case n == 1:
		s = "1 month"
	case n < 12:
		s = fmt.Sprintf("%d months", n)
	case n%12 == 0:
		s = fmt.Sprintf("%dy", n/12)
	default:
		s = fmt.Sprintf("%dy %dm", n/12, n%12)
	}
	if neg {
		return s + " ago"
	}
	return s
}

// FormatFrequency returns a short label for a frequency.
func FormatFrequency(f model.Frequency) string {
	switch f {
	case model.FrequencyMonthly:
		return "monthly"
	case model.FrequencyQuarterly:
		return "quarterly"
	case model.FrequencyYearly:
		return "yearly"
	default:
		return string(f) + "?"
	}
}
