package strategy

import "time"

type State string

type Event string

const (
	StateEntering State = "ENTERING"
	StateExiting  State = "EXITING"
)

const (
	EventBaselineSet Event = "BASELINE_SET"
	EventFlat        Event = "FLAT"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

type Reason string

const (
	ReasonNoData          Reason = "no_data"
	ReasonIdle            Reason = "idle"
	ReasonEntryLadder     Reason = "entry_ladder"
	ReasonExitLadder      Reason = "exit_ladder"
	ReasonStopLoss        Reason = "stop_loss"
	ReasonTrendlineBreach Reason = "trendline_breach"
	ReasonEntriesDisabled Reason = "entries_disabled"
	ReasonLineExpired     Reason = "line_expired"
)

// SettlementCurrency is the unit of BUY amounts.
const SettlementCurrency = "KRW"

// Observation is one cycle's market view for a single symbol.
// ReferencePrice is in USD, DomesticPrice in KRW, Rate in KRW per USD.
type Observation struct {
	Symbol            string
	At                time.Time
	ReferencePrice    float64
	HasReferencePrice bool
	DomesticPrice     float64
	HasDomesticPrice  bool
	Rate              float64
	HasRate           bool
	RateStale         bool
	Premium           float64
	HasPremium        bool
}

// Decision is the output of one Decide call. BUY amounts are KRW, SELL amounts are asset units.
// AcquiredQty and EntryRefPrice are only set on BUY and are applied by Commit.
type Decision struct {
	Strategy    string
	Symbol      string
	Action      Action
	Unit        string
	Amount      float64
	Reason      Reason
	Rung        int
	Observation Observation

	AcquiredQty   float64
	EntryRefPrice float64

	EntryLine         float64
	EntryDeviation    float64
	HasEntryDeviation bool
	ExitLine          float64
	ExitDeviation     float64
	HasExitDeviation  bool
	PnLPct            float64
	HasPnL            bool
}

func (d Decision) IsOrder() bool {
	return d.Action != ActionWait && d.Amount > 0
}

// Submitted returns the decision resized to the amount the exchange accepted.
// A BUY scales AcquiredQty by the same factor.
func (d Decision) Submitted(amount float64) Decision {
	if amount <= 0 || d.Amount <= 0 || amount == d.Amount {
		return d
	}
	if d.Action == ActionBuy {
		d.AcquiredQty *= amount / d.Amount
	}
	d.Amount = amount
	return d
}

func waitDecision(name, symbol string, obs Observation) Decision {
	return Decision{
		Strategy:    name,
		Symbol:      symbol,
		Action:      ActionWait,
		Rung:        -1,
		Reason:      ReasonIdle,
		Observation: obs,
	}
}
