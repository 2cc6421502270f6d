package strategy

import "time"

// Trendline is a straight line through two (time, price) calibration points.
// A line whose end is not after its start is flat at the start price.
type Trendline struct {
	StartAt    time.Time
	StartPrice float64
	EndAt      time.Time
	EndPrice   float64
	ValidUntil time.Time
}

// Slope is the price change per millisecond.
func (l Trendline) Slope() float64 {
	span := l.EndAt.UnixMilli() - l.StartAt.UnixMilli()
	if span <= 0 {
		return 0
	}
	return (l.EndPrice - l.StartPrice) / float64(span)
}

// PriceAt extrapolates forward from the start point; it never extrapolates backward.
func (l Trendline) PriceAt(t time.Time) float64 {
	elapsed := t.UnixMilli() - l.StartAt.UnixMilli()
	if elapsed <= 0 {
		return l.StartPrice
	}
	return l.StartPrice + l.Slope()*float64(elapsed)
}

// Expired reports whether t is at or after ValidUntil. A zero ValidUntil never expires.
func (l Trendline) Expired(t time.Time) bool {
	if l.ValidUntil.IsZero() {
		return false
	}
	return !t.Before(l.ValidUntil)
}
