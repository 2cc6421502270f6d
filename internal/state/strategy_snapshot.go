package state

import (
	"context"
	"encoding/json"
	"time"

	"kimp-trend-bot/internal/strategy"
)

const decisionKeyPrefix = "decision:"

// DecisionSnapshot is the last decision taken by a strategy, kept for inspection.
type DecisionSnapshot struct {
	Strategy       string  `json:"strategy"`
	Symbol         string  `json:"symbol"`
	Action         string  `json:"action"`
	Unit           string  `json:"unit,omitempty"`
	Amount         float64 `json:"amount"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	Premium        float64 `json:"premium,omitempty"`
	ReferencePrice float64 `json:"reference_price,omitempty"`
	DomesticPrice  float64 `json:"domestic_price,omitempty"`
	Rate           float64 `json:"rate,omitempty"`
	EntryDeviation float64 `json:"entry_deviation,omitempty"`
	ExitDeviation  float64 `json:"exit_deviation,omitempty"`
	UpdatedAtMS    int64   `json:"updated_at_ms"`
}

func NewDecisionSnapshot(d strategy.Decision, status string, now time.Time) DecisionSnapshot {
	return DecisionSnapshot{
		Strategy:       d.Strategy,
		Symbol:         d.Symbol,
		Action:         string(d.Action),
		Unit:           d.Unit,
		Amount:         d.Amount,
		Reason:         string(d.Reason),
		Status:         status,
		Premium:        d.Observation.Premium,
		ReferencePrice: d.Observation.ReferencePrice,
		DomesticPrice:  d.Observation.DomesticPrice,
		Rate:           d.Observation.Rate,
		EntryDeviation: d.EntryDeviation,
		ExitDeviation:  d.ExitDeviation,
		UpdatedAtMS:    now.UTC().UnixMilli(),
	}
}

func LoadDecisionSnapshot(ctx context.Context, store Store, name string) (DecisionSnapshot, bool, error) {
	if store == nil {
		return DecisionSnapshot{}, false, nil
	}
	raw, ok, err := store.Get(ctx, decisionKeyPrefix+name)
	if err != nil {
		return DecisionSnapshot{}, false, err
	}
	if !ok || len(raw) == 0 {
		return DecisionSnapshot{}, false, nil
	}
	var snapshot DecisionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return DecisionSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func SaveDecisionSnapshot(ctx context.Context, store Store, snapshot DecisionSnapshot) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return store.Set(ctx, decisionKeyPrefix+snapshot.Strategy, payload)
}
