package strategy

import (
	"math"
	"testing"
)

func TestSubmittedScalesBuyQuantity(t *testing.T) {
	d := Decision{Action: ActionBuy, Amount: 100000.6, AcquiredQty: 2.000012}
	got := d.Submitted(100000)
	if got.Amount != 100000 {
		t.Fatalf("expected amount 100000, got %v", got.Amount)
	}
	want := 2.000012 * 100000 / 100000.6
	if math.Abs(got.AcquiredQty-want) > 1e-12 {
		t.Fatalf("expected qty %v, got %v", want, got.AcquiredQty)
	}
}

func TestSubmittedSellKeepsRung(t *testing.T) {
	d := Decision{Action: ActionSell, Amount: 0.123456789, Rung: 2}
	got := d.Submitted(0.12345678)
	if got.Amount != 0.12345678 || got.Rung != 2 {
		t.Fatalf("unexpected decision %+v", got)
	}
}

func TestSubmittedIgnoresZero(t *testing.T) {
	d := Decision{Action: ActionBuy, Amount: 5000, AcquiredQty: 1}
	if got := d.Submitted(0); got.Amount != 5000 || got.AcquiredQty != 1 {
		t.Fatalf("expected decision unchanged, got %+v", got)
	}
}
