package strategy

import (
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTrendlineCalibrationPoints(t *testing.T) {
	line := Trendline{StartAt: day(2025, 1, 20), StartPrice: 109588, EndAt: day(2025, 5, 18), EndPrice: 103126}
	if got := line.PriceAt(line.StartAt); got != 109588 {
		t.Fatalf("expected 109588 at start, got %v", got)
	}
	if got := line.PriceAt(line.EndAt); math.Abs(got-103126) > 1e-6 {
		t.Fatalf("expected 103126 at end, got %v", got)
	}
}

func TestTrendlineNoBackwardExtrapolation(t *testing.T) {
	line := Trendline{StartAt: day(2025, 1, 20), StartPrice: 100, EndAt: day(2025, 1, 30), EndPrice: 200}
	if got := line.PriceAt(day(2024, 6, 1)); got != 100 {
		t.Fatalf("expected start price before start, got %v", got)
	}
}

func TestTrendlineExtrapolatesForward(t *testing.T) {
	line := Trendline{StartAt: day(2025, 1, 1), StartPrice: 100, EndAt: day(2025, 1, 11), EndPrice: 200}
	if got := line.PriceAt(day(2025, 1, 21)); math.Abs(got-300) > 1e-9 {
		t.Fatalf("expected 300, got %v", got)
	}
	if got := line.PriceAt(day(2025, 1, 6)); math.Abs(got-150) > 1e-9 {
		t.Fatalf("expected 150, got %v", got)
	}
}

func TestTrendlineNonChronologicalIsFlat(t *testing.T) {
	line := Trendline{StartAt: day(2025, 5, 1), StartPrice: 100, EndAt: day(2025, 1, 1), EndPrice: 500}
	if line.Slope() != 0 {
		t.Fatalf("expected zero slope, got %v", line.Slope())
	}
	if got := line.PriceAt(day(2026, 1, 1)); got != 100 {
		t.Fatalf("expected flat 100, got %v", got)
	}
	same := Trendline{StartAt: day(2025, 1, 1), StartPrice: 100, EndAt: day(2025, 1, 1), EndPrice: 500}
	if got := same.PriceAt(day(2025, 2, 1)); got != 100 {
		t.Fatalf("expected flat 100 for equal dates, got %v", got)
	}
}

func TestTrendlineExpired(t *testing.T) {
	line := Trendline{ValidUntil: day(2026, 1, 1)}
	if line.Expired(day(2025, 12, 31)) {
		t.Fatalf("expected line valid before expiry")
	}
	if !line.Expired(day(2026, 1, 1)) {
		t.Fatalf("expected line expired at expiry instant")
	}
	if (Trendline{}).Expired(day(2099, 1, 1)) {
		t.Fatalf("expected zero expiry to never expire")
	}
}
