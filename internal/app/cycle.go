package app

import (
	"context"
	"fmt"
	"time"

	"kimp-trend-bot/internal/account"
	"kimp-trend-bot/internal/alerts"
	"kimp-trend-bot/internal/exec"
	"kimp-trend-bot/internal/state"
	"kimp-trend-bot/internal/strategy"

	"go.uber.org/zap"
)

// balances is the cycle-local view, decremented as orders go out.
type balances struct {
	krw    float64
	assets map[string]float64
}

func newBalances(s account.State, symbols []string) *balances {
	b := &balances{krw: s.Free(strategy.SettlementCurrency), assets: make(map[string]float64, len(symbols))}
	for _, sym := range symbols {
		b.assets[sym] = s.Total(sym)
	}
	return b
}

func (b *balances) apply(d strategy.Decision) {
	switch d.Action {
	case strategy.ActionBuy:
		b.krw -= d.Amount
		if b.krw < 0 {
			b.krw = 0
		}
		b.assets[d.Symbol] += d.AcquiredQty
	case strategy.ActionSell:
		b.assets[d.Symbol] -= d.Amount
		if b.assets[d.Symbol] < 0 {
			b.assets[d.Symbol] = 0
		}
	}
}

func (a *App) cycle(ctx context.Context) ([]Outcome, error) {
	now := a.now().UTC()
	defer a.metrics.Cycles.Inc()

	observations := a.market.Observe(ctx, a.instruments)
	a.recordObservations(now, observations)

	symbols := make([]string, 0, len(a.instruments))
	for _, inst := range a.instruments {
		symbols = append(symbols, inst.Symbol)
	}
	snapshot, err := a.account.Reconcile(ctx)
	if err != nil {
		a.metrics.CycleErrors.Inc()
		outcomes := make([]Outcome, 0, len(a.engines))
		for _, engine := range a.engines {
			d := strategy.Decision{
				Strategy:    engine.Name(),
				Symbol:      engine.Symbol(),
				Action:      strategy.ActionWait,
				Reason:      strategy.ReasonNoData,
				Rung:        -1,
				Observation: observations[engine.Symbol()],
			}
			outcomes = append(outcomes, Outcome{Decision: d, Status: StatusWait})
		}
		return outcomes, fmt.Errorf("balance fetch: %w", err)
	}
	bal := newBalances(snapshot, symbols)

	outcomes := make([]Outcome, 0, len(a.engines))
	for _, engine := range a.engines {
		obs := observations[engine.Symbol()]
		d := engine.Decide(obs, bal.krw, bal.assets[engine.Symbol()])
		out := a.dispatch(ctx, engine, d, now)
		if out.Status == StatusPlaced || out.Status == StatusSimulated {
			bal.apply(out.Decision)
		}
		a.persist(ctx, engine, out, now)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (a *App) dispatch(ctx context.Context, engine strategy.Engine, d strategy.Decision, now time.Time) Outcome {
	fields := decisionFields(d)
	if !d.IsOrder() {
		a.log.Info("decision", fields...)
		return Outcome{Decision: d, Status: StatusWait}
	}
	if err := strategy.CheckOrder(a.cfg.Risk, d); err != nil {
		a.log.Warn("order rejected by risk limits", append(fields, zap.Error(err))...)
		return Outcome{Decision: d, Status: StatusRejected, Err: err}
	}

	order := exec.Order{
		Strategy:   d.Strategy,
		Market:     "KRW-" + d.Symbol,
		Identifier: fmt.Sprintf("%s-%d-%s", d.Strategy, now.UnixMilli(), d.Action),
	}
	if d.Action == strategy.ActionBuy {
		order.Side, order.Notional = exec.SideBuy, d.Amount
	} else {
		order.Side, order.Volume = exec.SideSell, d.Amount
	}
	ack, err := a.executor.Place(ctx, order)
	if err != nil {
		a.metrics.OrdersFailed.Inc()
		a.log.Error("order failed", append(fields, zap.Error(err))...)
		a.notify(ctx, alerts.OrderFailed(d, err))
		return Outcome{Decision: d, Status: StatusFailed, Err: err}
	}
	if ack.Duplicate {
		a.log.Warn("order already submitted", append(fields, zap.String("order_id", ack.OrderID))...)
		return Outcome{Decision: d, Status: StatusDuplicate, OrderID: ack.OrderID}
	}

	d = d.Submitted(ack.Amount)
	engine.Commit(d)
	status := StatusPlaced
	if ack.Simulated {
		status = StatusSimulated
		a.metrics.OrdersSimulated.Inc()
	} else {
		a.metrics.OrdersPlaced.Inc()
	}
	a.log.Info("order accepted", append(fields, zap.String("order_id", ack.OrderID), zap.Bool("simulated", ack.Simulated))...)
	if d.Reason == strategy.ReasonStopLoss {
		a.notify(ctx, alerts.StopLoss(d))
	} else {
		a.notify(ctx, alerts.OrderPlaced(d, ack.OrderID, ack.Simulated))
	}
	return Outcome{Decision: d, Status: status, OrderID: ack.OrderID}
}

// persist writes the engine's tracker and last decision, then journals the outcome.
func (a *App) persist(ctx context.Context, engine strategy.Engine, out Outcome, now time.Time) {
	a.recordDecision(now, out)
	if a.readOnly {
		return
	}
	if err := state.SaveTracker(ctx, a.store, engine.Name(), engine.Tracker(), now); err != nil {
		a.log.Warn("tracker persist failed", zap.String("strategy", engine.Name()), zap.Error(err))
	}
	if err := state.SaveDecisionSnapshot(ctx, a.store, state.NewDecisionSnapshot(out.Decision, out.Status, now)); err != nil {
		a.log.Warn("decision persist failed", zap.String("strategy", engine.Name()), zap.Error(err))
	}
}

func (a *App) notify(ctx context.Context, message string) {
	if !a.alerts.Enabled() {
		return
	}
	if err := a.alerts.Send(ctx, message); err != nil {
		a.log.Warn("telegram alert failed", zap.Error(err))
	}
}

func decisionFields(d strategy.Decision) []zap.Field {
	obs := d.Observation
	fields := []zap.Field{
		zap.String("strategy", d.Strategy),
		zap.String("symbol", d.Symbol),
		zap.String("action", string(d.Action)),
		zap.String("reason", string(d.Reason)),
		zap.Float64("amount", d.Amount),
	}
	if d.Unit != "" {
		fields = append(fields, zap.String("unit", d.Unit))
	}
	if d.Rung >= 0 {
		fields = append(fields, zap.Int("rung", d.Rung))
	}
	if obs.HasDomesticPrice {
		fields = append(fields, zap.Float64("domestic_price", obs.DomesticPrice))
	}
	if obs.HasReferencePrice {
		fields = append(fields, zap.Float64("reference_price", obs.ReferencePrice))
	}
	if obs.HasRate {
		fields = append(fields, zap.Float64("rate", obs.Rate), zap.Bool("rate_stale", obs.RateStale))
	}
	if obs.HasPremium {
		fields = append(fields, zap.Float64("premium_pct", obs.Premium))
	}
	if d.HasEntryDeviation {
		fields = append(fields, zap.Float64("entry_line", d.EntryLine), zap.Float64("entry_dev_pct", d.EntryDeviation))
	}
	if d.HasExitDeviation {
		fields = append(fields, zap.Float64("exit_line", d.ExitLine), zap.Float64("exit_dev_pct", d.ExitDeviation))
	}
	if d.HasPnL {
		fields = append(fields, zap.Float64("pnl_pct", d.PnLPct))
	}
	return fields
}
