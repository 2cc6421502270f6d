package strategy

// Tracker is the per-engine position state for one holding cycle.
// Decide mutates only the observation-driven fields; order-driven fields change in Commit.
type Tracker struct {
	CumulativeEntrySpend  float64
	CumulativeExitAmount  float64
	ExitBaseQuantity      float64
	ExitBaseEstablished   bool
	HighWaterHoldings     float64
	LastExitStepIndex     int
	WeightedAvgEntryPrice float64
	Holdings              float64
	EntriesDisabled       bool
}

func NewTracker() Tracker {
	return Tracker{LastExitStepIndex: -1}
}

func (t *Tracker) RecordHoldingsObserved(qty float64) {
	t.Holdings = qty
	if qty > t.HighWaterHoldings {
		t.HighWaterHoldings = qty
	}
}

// ResetIfFlat clears every cycle-scoped field when qty is below minTradable.
func (t *Tracker) ResetIfFlat(qty, minTradable float64) bool {
	if qty >= minTradable {
		return false
	}
	*t = NewTracker()
	t.Holdings = qty
	return true
}

// EstablishExitBase snapshots the exit baseline once per holding cycle.
func (t *Tracker) EstablishExitBase(qty float64) bool {
	if t.ExitBaseEstablished {
		return false
	}
	t.ExitBaseQuantity = qty
	t.ExitBaseEstablished = true
	t.CumulativeExitAmount = 0
	t.LastExitStepIndex = -1
	return true
}

// RecordEntry adds a confirmed purchase and re-weights the average entry price
// against the holdings last observed.
func (t *Tracker) RecordEntry(settlementAmount, assetQtyAcquired, referencePrice float64) {
	t.CumulativeEntrySpend += settlementAmount
	if assetQtyAcquired <= 0 || referencePrice <= 0 {
		return
	}
	prior := t.Holdings
	if prior < 0 {
		prior = 0
	}
	total := prior + assetQtyAcquired
	t.WeightedAvgEntryPrice = (prior*t.WeightedAvgEntryPrice + assetQtyAcquired*referencePrice) / total
	t.Holdings = total
	if total > t.HighWaterHoldings {
		t.HighWaterHoldings = total
	}
}

// RecordExit adds a confirmed sale. rung is the exit ladder index consumed, or -1 for a full exit.
func (t *Tracker) RecordExit(amount float64, rung int) {
	t.CumulativeExitAmount += amount
	t.Holdings -= amount
	if t.Holdings < 0 {
		t.Holdings = 0
	}
	if rung > t.LastExitStepIndex {
		t.LastExitStepIndex = rung
	}
}
