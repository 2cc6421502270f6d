package strategy

type GridParams struct {
	Name           string
	Symbol         string
	Seed           float64
	BuyRungs       []Rung
	SellRungs      []Rung
	ResetThreshold float64
	MinTradable    float64
	MinOrder       float64
}

// SpreadGrid buys into a falling premium and, once the premium reaches the reset
// threshold, sells the position back out against a fixed baseline.
type SpreadGrid struct {
	params  GridParams
	entry   Ladder
	exit    Ladder
	tracker Tracker
	regime  *StateMachine
}

func NewSpreadGrid(p GridParams) *SpreadGrid {
	return &SpreadGrid{
		params:  p,
		entry:   NewLadder(EntryPolarity, p.BuyRungs),
		exit:    NewLadder(ExitPolarity, p.SellRungs),
		tracker: NewTracker(),
		regime:  NewStateMachine(),
	}
}

func (g *SpreadGrid) Name() string   { return g.params.Name }
func (g *SpreadGrid) Symbol() string { return g.params.Symbol }

func (g *SpreadGrid) Regime() State { return g.regime.Current() }

func (g *SpreadGrid) Decide(obs Observation, settlementBalance, assetBalance float64) Decision {
	d := waitDecision(g.params.Name, g.params.Symbol, obs)
	if !obs.HasPremium || !obs.HasDomesticPrice || !obs.HasRate {
		d.Reason = ReasonNoData
		return d
	}
	g.tracker.RecordHoldingsObserved(assetBalance)
	if g.tracker.ResetIfFlat(assetBalance, g.params.MinTradable) {
		g.regime.Apply(EventFlat)
	}
	if !g.tracker.ExitBaseEstablished && obs.Premium >= g.params.ResetThreshold && assetBalance >= g.params.MinTradable {
		g.tracker.EstablishExitBase(assetBalance)
		g.regime.Apply(EventBaselineSet)
	}
	d.ExitDeviation, d.HasExitDeviation = obs.Premium, g.tracker.ExitBaseEstablished
	d.EntryDeviation, d.HasEntryDeviation = obs.Premium, !g.tracker.ExitBaseEstablished

	if g.regime.Current() == StateExiting {
		step := g.exit.Evaluate(LadderInput{
			Deviation: obs.Premium,
			Base:      g.tracker.ExitBaseQuantity,
			LastIndex: g.tracker.LastExitStepIndex,
			Cap:       assetBalance,
			Minimum:   g.params.MinTradable,
		})
		if step.Amount > 0 {
			d.Action, d.Unit, d.Amount, d.Rung, d.Reason = ActionSell, g.params.Symbol, step.Amount, step.Rung, ReasonExitLadder
		}
		return d
	}

	step := g.entry.Evaluate(LadderInput{
		Deviation: obs.Premium,
		Base:      g.params.Seed,
		Committed: g.tracker.CumulativeEntrySpend,
		Cap:       settlementBalance,
		Minimum:   g.params.MinOrder,
	})
	if step.Amount <= 0 {
		return d
	}
	d.Action, d.Unit, d.Amount, d.Rung, d.Reason = ActionBuy, SettlementCurrency, step.Amount, step.Rung, ReasonEntryLadder
	d.AcquiredQty = step.Amount / obs.DomesticPrice
	d.EntryRefPrice = obs.DomesticPrice / obs.Rate
	return d
}

func (g *SpreadGrid) Commit(d Decision) {
	switch d.Action {
	case ActionBuy:
		g.tracker.RecordEntry(d.Amount, d.AcquiredQty, d.EntryRefPrice)
	case ActionSell:
		g.tracker.RecordExit(d.Amount, d.Rung)
	}
}

func (g *SpreadGrid) Tracker() Tracker { return g.tracker }

func (g *SpreadGrid) Restore(t Tracker) {
	g.tracker = t
	if t.ExitBaseEstablished {
		g.regime.SetState(StateExiting)
	} else {
		g.regime.SetState(StateEntering)
	}
}
