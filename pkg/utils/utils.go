package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment frequencies understood by the schedule helpers.
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// DateLayout is the ISO date layout used in tags and installment date columns.
const DateLayout = "2006-01-02"

// Tolerance is the amount below which two money values are considered equal.
var Tolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// RoundCents rounds a money value to 2 decimal places.
// Every computed amount goes through here so that stored and displayed values agree.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent converts a percentage (10 for 10%) to a fraction (0.10).
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Div(hundred)
}

// NonNegative clamps negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NearlyEqual reports whether a and b differ by less than Tolerance.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// DateOnly drops the clock part of t, keeping its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBeforeDay reports whether a falls on a calendar day strictly before b.
func IsBeforeDay(a, b time.Time) bool {
	return DateOnly(a).Before(DateOnly(b))
}

// DaysBetween returns the number of calendar days from "from" to "to".
// Negative when "to" is earlier.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// CalculateDueDate returns the due date of installment number n (1-based)
// for a loan starting at start with the given frequency.
// Monthly steps are computed from the start date to avoid day drift.
func CalculateDueDate(start time.Time, frequency string, n int) time.Time {
	switch frequency {
	case FrequencyDaily:
		return start.AddDate(0, 0, n)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*n)
	default:
		return start.AddDate(0, n, 0)
	}
}

// ValidFrequency reports whether f is a known payment frequency.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as an ISO date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
