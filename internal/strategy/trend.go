package strategy

type TrendlineParams struct {
	Name         string
	Symbol       string
	Seed         float64
	BuyRungs     []Rung
	SellRungs    []Rung
	BuyLine      Trendline
	SellLine     Trendline
	StopLossPct  float64
	PartialExits bool
	MinTradable  float64
	MinOrder     float64
}

// TrendlineDeviation buys as the reference price approaches a rising support line and
// exits on a stop loss, a break below the sell line, or a partial exit ladder above it.
type TrendlineDeviation struct {
	params  TrendlineParams
	entry   Ladder
	exit    Ladder
	tracker Tracker
}

func NewTrendlineDeviation(p TrendlineParams) *TrendlineDeviation {
	return &TrendlineDeviation{
		params:  p,
		entry:   NewLadder(EntryPolarity, p.BuyRungs),
		exit:    NewLadder(ExitPolarity, p.SellRungs),
		tracker: NewTracker(),
	}
}

func (e *TrendlineDeviation) Name() string   { return e.params.Name }
func (e *TrendlineDeviation) Symbol() string { return e.params.Symbol }

func (e *TrendlineDeviation) Decide(obs Observation, settlementBalance, assetBalance float64) Decision {
	d := waitDecision(e.params.Name, e.params.Symbol, obs)
	if !obs.HasReferencePrice || !obs.HasRate {
		d.Reason = ReasonNoData
		return d
	}
	price := obs.ReferencePrice
	e.tracker.RecordHoldingsObserved(assetBalance)
	e.tracker.ResetIfFlat(assetBalance, e.params.MinTradable)

	d.ExitLine = e.params.SellLine.PriceAt(obs.At)
	exitDev, exitOK := Deviation(price, d.ExitLine)
	if assetBalance >= e.params.MinTradable {
		d.ExitDeviation, d.HasExitDeviation = exitDev, exitOK
		if e.sell(&d, price, exitDev, exitOK, assetBalance) {
			return d
		}
	}

	if e.tracker.EntriesDisabled {
		d.Reason = ReasonEntriesDisabled
		return d
	}
	if e.params.BuyLine.Expired(obs.At) {
		d.Reason = ReasonLineExpired
		return d
	}
	d.EntryLine = e.params.BuyLine.PriceAt(obs.At)
	entryDev, ok := Deviation(price, d.EntryLine)
	if !ok {
		return d
	}
	d.EntryDeviation, d.HasEntryDeviation = entryDev, true
	step := e.entry.Evaluate(LadderInput{
		Deviation: entryDev,
		Base:      e.params.Seed,
		Committed: e.tracker.CumulativeEntrySpend,
		Cap:       settlementBalance,
		Minimum:   e.params.MinOrder,
	})
	if step.Amount <= 0 {
		return d
	}
	d.Action, d.Unit, d.Amount, d.Rung, d.Reason = ActionBuy, SettlementCurrency, step.Amount, step.Rung, ReasonEntryLadder
	d.AcquiredQty = step.Amount / obs.Rate / price
	d.EntryRefPrice = price
	return d
}

// sell fills d with an exit when one applies. Stop loss is checked first and survives line expiry.
func (e *TrendlineDeviation) sell(d *Decision, price, exitDev float64, exitOK bool, holdings float64) bool {
	if avg := e.tracker.WeightedAvgEntryPrice; avg > 0 {
		d.PnLPct, d.HasPnL = (price-avg)/avg*100, true
		if d.PnLPct <= e.params.StopLossPct {
			d.Action, d.Unit, d.Amount, d.Reason = ActionSell, e.params.Symbol, holdings, ReasonStopLoss
			return true
		}
	}
	if e.params.SellLine.Expired(d.Observation.At) || !exitOK {
		return false
	}
	if !e.params.PartialExits {
		if price < d.ExitLine {
			d.Action, d.Unit, d.Amount, d.Reason = ActionSell, e.params.Symbol, holdings, ReasonTrendlineBreach
			return true
		}
		return false
	}
	step := e.exit.Evaluate(LadderInput{
		Deviation: exitDev,
		Base:      e.tracker.HighWaterHoldings,
		LastIndex: e.tracker.LastExitStepIndex,
		Cap:       holdings,
		Minimum:   e.params.MinTradable,
	})
	if step.Amount <= 0 {
		return false
	}
	d.Action, d.Unit, d.Amount, d.Rung, d.Reason = ActionSell, e.params.Symbol, step.Amount, step.Rung, ReasonExitLadder
	return true
}

func (e *TrendlineDeviation) Commit(d Decision) {
	switch d.Action {
	case ActionBuy:
		e.tracker.RecordEntry(d.Amount, d.AcquiredQty, d.EntryRefPrice)
	case ActionSell:
		e.tracker.RecordExit(d.Amount, d.Rung)
		e.tracker.EntriesDisabled = true
	}
}

func (e *TrendlineDeviation) Tracker() Tracker { return e.tracker }

func (e *TrendlineDeviation) Restore(t Tracker) { e.tracker = t }
