package billing_test

import (
	"math"
	"testing"

	"github.com/andy/docket/internal/billing"
)

func TestRoundToSixMinutes(t *testing.T) {
	tests := []struct {
		seconds int64
		want    float64
	}{
		{-5, 0},
		{0, 0},
		{1, 0.1},
		{59, 0.1},
		{360, 0.1},
		{361, 0.2},
		{400, 0.2},
		{720, 0.2},
		{721, 0.3},
		{3600, 1.0},
		{3601, 1.1},
	}
	for _, tt := range tests {
		got := billing.RoundToSixMinutes(tt.seconds)
		if got != tt.want {
			t.Errorf("RoundToSixMinutes(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestRoundToSixMinutesBands(t *testing.T) {
	for s := int64(1); s <= 360; s++ {
		if got := billing.RoundToSixMinutes(s); got != 0.1 {
			t.Fatalf("RoundToSixMinutes(%d) = %v, want 0.1", s, got)
		}
	}
	for s := int64(361); s <= 720; s++ {
		if got := billing.RoundToSixMinutes(s); got != 0.2 {
			t.Fatalf("RoundToSixMinutes(%d) = %v, want 0.2", s, got)
		}
	}
}

func TestRoundToSixMinutesMonotonic(t *testing.T) {
	prev := billing.RoundToSixMinutes(-10)
	for s := int64(-9); s <= 4*3600; s++ {
		got := billing.RoundToSixMinutes(s)
		if got < prev {
			t.Fatalf("RoundToSixMinutes(%d) = %v, smaller than previous %v", s, got, prev)
		}
		prev = got
	}
}

func TestCalculateBillingAmount(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		rate    float64
		want    float64
	}{
		{"six minutes forty at 300", 400, 300, 60},
		{"one second at 250", 1, 250, 25},
		{"unbilled rate", 5000, 0, 0},
		{"nothing tracked", 0, 300, 0},
		{"one hour at 175", 3600, 175, 175},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.CalculateBillingAmount(tt.seconds, tt.rate)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateBillingAmount(%d, %v) = %v, want %v", tt.seconds, tt.rate, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
		{90061, "25:01:01"},
		{-3661, "01:01:01"},
		{360000, "100:00:00"},
	}
	for _, tt := range tests {
		got := billing.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationHuman(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{30, "30s"},
		{60, "1m"},
		{330, "5m 30s"},
		{2700, "45m"},
		{3600, "1h"},
		{8100, "2h 15m"},
	}
	for _, tt := range tests {
		got := billing.FormatDurationHuman(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHuman(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatBillableHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0.0 hr"},
		{0.1, "0.1 hr (6 min)"},
		{0.2, "0.2 hr (12 min)"},
		{1.5, "1.5 hr (90 min)"},
	}
	for _, tt := range tests {
		got := billing.FormatBillableHours(tt.hours)
		if got != tt.want {
			t.Errorf("FormatBillableHours(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestEffectiveRate(t *testing.T) {
	override := 150.0
	zero := 0.0

	if got := billing.EffectiveRate(&override, 200); got != 150 {
		t.Errorf("EffectiveRate(150, 200) = %v, want 150", got)
	}
	if got := billing.EffectiveRate(nil, 200); got != 200 {
		t.Errorf("EffectiveRate(nil, 200) = %v, want 200", got)
	}
	// an explicit zero is a real override (pro bono matter)
	if got := billing.EffectiveRate(&zero, 200); got != 0 {
		t.Errorf("EffectiveRate(0, 200) = %v, want 0", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{60, "$60.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-42, "-$42.00"},
	}
	for _, tt := range tests {
		got := billing.FormatMoney(tt.amount)
		if got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
