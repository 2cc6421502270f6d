package strategy

import (
	"math"
	"testing"
)

func TestTrackerHighWater(t *testing.T) {
	tr := NewTracker()
	tr.RecordHoldingsObserved(5)
	tr.RecordHoldingsObserved(8)
	tr.RecordHoldingsObserved(3)
	if tr.HighWaterHoldings != 8 {
		t.Fatalf("expected high water 8, got %v", tr.HighWaterHoldings)
	}
	if tr.Holdings != 3 {
		t.Fatalf("expected holdings 3, got %v", tr.Holdings)
	}
}

func TestTrackerResetIfFlat(t *testing.T) {
	tr := Tracker{
		CumulativeEntrySpend:  500000,
		CumulativeExitAmount:  2,
		ExitBaseQuantity:      10,
		ExitBaseEstablished:   true,
		HighWaterHoldings:     10,
		LastExitStepIndex:     2,
		WeightedAvgEntryPrice: 1900,
		EntriesDisabled:       true,
	}
	if tr.ResetIfFlat(1.0, 1.0) {
		t.Fatalf("expected no reset at the minimum")
	}
	if !tr.ResetIfFlat(0.5, 1.0) {
		t.Fatalf("expected reset below the minimum")
	}
	if tr.HighWaterHoldings != 0 || tr.LastExitStepIndex != -1 || tr.WeightedAvgEntryPrice != 0 || tr.CumulativeEntrySpend != 0 {
		t.Fatalf("expected cycle fields cleared, got %+v", tr)
	}
	if tr.ExitBaseEstablished || tr.EntriesDisabled {
		t.Fatalf("expected flags cleared, got %+v", tr)
	}
	if tr.Holdings != 0.5 {
		t.Fatalf("expected holdings kept, got %v", tr.Holdings)
	}
}

func TestTrackerRecordEntryWeightsAverage(t *testing.T) {
	tr := NewTracker()
	tr.RecordHoldingsObserved(1)
	tr.WeightedAvgEntryPrice = 2000
	tr.RecordEntry(1350000, 1, 1000)
	if math.Abs(tr.WeightedAvgEntryPrice-1500) > 1e-9 {
		t.Fatalf("expected avg 1500, got %v", tr.WeightedAvgEntryPrice)
	}
	if tr.CumulativeEntrySpend != 1350000 {
		t.Fatalf("expected spend 1350000, got %v", tr.CumulativeEntrySpend)
	}
	if tr.Holdings != 2 || tr.HighWaterHoldings != 2 {
		t.Fatalf("expected holdings 2, got %+v", tr)
	}
}

func TestTrackerRecordEntryFromFlat(t *testing.T) {
	tr := NewTracker()
	tr.RecordEntry(100000, 0.5, 3000)
	if tr.WeightedAvgEntryPrice != 3000 {
		t.Fatalf("expected avg 3000, got %v", tr.WeightedAvgEntryPrice)
	}
}

func TestTrackerRecordExitWatermarkMonotonic(t *testing.T) {
	tr := NewTracker()
	tr.RecordHoldingsObserved(100)
	tr.RecordExit(30, 0)
	tr.RecordExit(20, 1)
	tr.RecordExit(50, -1)
	if tr.LastExitStepIndex != 1 {
		t.Fatalf("expected watermark 1, got %d", tr.LastExitStepIndex)
	}
	if tr.CumulativeExitAmount != 100 {
		t.Fatalf("expected exit amount 100, got %v", tr.CumulativeExitAmount)
	}
	if tr.Holdings != 0 {
		t.Fatalf("expected holdings 0, got %v", tr.Holdings)
	}
}

func TestTrackerEstablishExitBaseOnce(t *testing.T) {
	tr := NewTracker()
	if !tr.EstablishExitBase(40) {
		t.Fatalf("expected baseline established")
	}
	if tr.EstablishExitBase(90) {
		t.Fatalf("expected second baseline ignored")
	}
	if tr.ExitBaseQuantity != 40 {
		t.Fatalf("expected baseline 40, got %v", tr.ExitBaseQuantity)
	}
}
