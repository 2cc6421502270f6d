package market

import (
	"context"

	"kimp-trend-bot/internal/strategy"
)

// Observation turns the snapshot's raw prices into one symbol's strategy input.
func (s Snapshot) Observation(inst Instrument) strategy.Observation {
	obs := strategy.Observation{Symbol: inst.Symbol, At: s.At}
	obs.DomesticPrice, obs.HasDomesticPrice = s.DomesticPrice(inst)
	obs.ReferencePrice, obs.HasReferencePrice = s.ReferencePrice(inst)
	if s.HasRate && s.Rate.Rate > 0 {
		obs.Rate, obs.HasRate, obs.RateStale = s.Rate.Rate, true, s.Rate.Stale
	}
	if obs.HasDomesticPrice && obs.HasReferencePrice && obs.HasRate {
		obs.Premium, obs.HasPremium = strategy.Premium(obs.DomesticPrice, obs.ReferencePrice, obs.Rate)
	}
	return obs
}

// Observe fetches one snapshot and returns an observation per instrument symbol.
func (m *MarketData) Observe(ctx context.Context, instruments []Instrument) map[string]strategy.Observation {
	snap := m.Snapshot(ctx, instruments)
	out := make(map[string]strategy.Observation, len(instruments))
	for _, inst := range instruments {
		out[inst.Symbol] = snap.Observation(inst)
	}
	return out
}
