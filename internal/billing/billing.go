// Package billing converts tracked seconds into legally rounded billable
// hours and currency amounts.
//
// Attorneys bill in tenths of an hour. 1-6 minutes is 0.1 hr, 7-12 minutes
// is 0.2 hr, and so on. Rounding is always up.
package billing

import (
	"fmt"
	"math"
)

const (
	secondsPerIncrement = 6 * 60
	minBillableHours    = 0.1
)

// RoundToSixMinutes returns billable hours for the given number of seconds,
// rounded up to the next 0.1 hour. Any positive duration bills at least
// 0.1 hour; zero and negative durations bill nothing.
func RoundToSixMinutes(seconds int64) float64 {
	if seconds <= 0 {
		return 0
	}
	minutes := float64(seconds) / 60
	tenths := math.Ceil(minutes/6) / 10
	return math.Max(tenths, minBillableHours)
}

// CalculateBillingAmount returns the amount owed for the given seconds at
// hourlyRate, using six-minute rounding. The rate is not validated here.
func CalculateBillingAmount(seconds int64, hourlyRate float64) float64 {
	return RoundToSixMinutes(seconds) * hourlyRate
}

// FormatDuration formats seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDurationHuman formats seconds as "2h 15m", "45m", "5m 30s" or "30s".
func FormatDurationHuman(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		if m > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	if m > 0 {
		if s > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatBillableHours formats decimal hours as "0.2 hr (12 min)".
func FormatBillableHours(hours float64) string {
	if hours <= 0 {
		return "0.0 hr"
	}
	minutes := int64(math.Round(hours * 60))
	return fmt.Sprintf("%.1f hr (%d min)", hours, minutes)
}

// EffectiveRate returns specific when set, otherwise fallback. A matter's
// rate overrides its client's default this way.
func EffectiveRate(specific *float64, fallback float64) float64 {
	if specific != nil {
		return *specific
	}
	return fallback
}

// FormatMoney formats an amount as "$X,XXX.XX" with comma separators.
func FormatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	s := fmt.Sprintf("%.2f", amount)

	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	prefix := "$"
	if negative {
		prefix = "-$"
	}
	return prefix + string(result) + decPart
}
