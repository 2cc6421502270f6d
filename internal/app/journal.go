package app

import (
	"time"

	"kimp-trend-bot/internal/strategy"
	"kimp-trend-bot/internal/timescale"
)

func (a *App) recordObservations(now time.Time, observations map[string]strategy.Observation) {
	stale := false
	for _, engine := range a.engines {
		obs, ok := observations[engine.Symbol()]
		if !ok {
			continue
		}
		if obs.HasPremium {
			a.metrics.Premium.With(obs.Symbol).Set(obs.Premium)
		}
		if obs.HasRate {
			a.metrics.FXRate.Set(obs.Rate)
			stale = stale || obs.RateStale
		}
		a.timescale.EnqueueObservation(timescale.Observation{
			Time:           now,
			Strategy:       engine.Name(),
			Symbol:         obs.Symbol,
			DomesticPrice:  obs.DomesticPrice,
			ReferencePrice: obs.ReferencePrice,
			Rate:           obs.Rate,
			RateStale:      obs.RateStale,
			Premium:        obs.Premium,
			HasPremium:     obs.HasPremium,
		})
	}
	if stale {
		a.metrics.FXStale.Inc()
	}
}

func (a *App) recordDecision(now time.Time, out Outcome) {
	d := out.Decision
	deviation := d.ExitDeviation
	if d.HasEntryDeviation {
		deviation = d.EntryDeviation
	}
	a.timescale.EnqueueDecision(timescale.Decision{
		Time:      now,
		Strategy:  d.Strategy,
		Symbol:    d.Symbol,
		Action:    string(d.Action),
		Unit:      d.Unit,
		Amount:    d.Amount,
		Reason:    string(d.Reason),
		Rung:      d.Rung,
		Status:    out.Status,
		OrderID:   out.OrderID,
		Deviation: deviation,
	})
}
