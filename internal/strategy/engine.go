package strategy

import (
	"errors"
	"fmt"
	"sort"

	"kimp-trend-bot/internal/config"
)

var ErrUnknownKind = errors.New("unknown strategy kind")

// Engine turns one observation plus balances into a single decision.
// Commit applies the order-driven half of a decision once the order is accepted.
type Engine interface {
	Name() string
	Symbol() string
	Decide(obs Observation, settlementBalance, assetBalance float64) Decision
	Commit(d Decision)
	Tracker() Tracker
	Restore(t Tracker)
}

// New resolves a configured strategy into its engine.
func New(cfg config.StrategyConfig, limits config.LimitsConfig) (Engine, error) {
	minTradable := cfg.MinTradableQty
	if minTradable == 0 {
		minTradable = limits.MinTradableQty
	}
	buy := toRungs(cfg.BuyLevels)
	sell := toRungs(cfg.SellLevels)
	switch cfg.Kind {
	case config.KindKimpGrid:
		return NewSpreadGrid(GridParams{
			Name:           cfg.Name,
			Symbol:         cfg.Symbol,
			Seed:           cfg.SeedKRW,
			BuyRungs:       buy,
			SellRungs:      sell,
			ResetThreshold: cfg.ResetThreshold,
			MinTradable:    minTradable,
			MinOrder:       limits.MinOrderKRW,
		}), nil
	case config.KindTrendline:
		if cfg.BuyLine == nil || cfg.SellLine == nil {
			return nil, fmt.Errorf("strategy %s: trendlines are required", cfg.Name)
		}
		sort.SliceStable(sell, func(i, j int) bool { return sell[i].Threshold < sell[j].Threshold })
		return NewTrendlineDeviation(TrendlineParams{
			Name:         cfg.Name,
			Symbol:       cfg.Symbol,
			Seed:         cfg.SeedKRW,
			BuyRungs:     buy,
			SellRungs:    sell,
			BuyLine:      toTrendline(*cfg.BuyLine),
			SellLine:     toTrendline(*cfg.SellLine),
			StopLossPct:  cfg.StopLossValue(),
			PartialExits: cfg.SellPartial,
			MinTradable:  minTradable,
			MinOrder:     limits.MinOrderKRW,
		}), nil
	}
	return nil, fmt.Errorf("strategy %s: %q: %w", cfg.Name, cfg.Kind, ErrUnknownKind)
}

func toRungs(levels []config.Rung) []Rung {
	out := make([]Rung, 0, len(levels))
	for _, l := range levels {
		out = append(out, Rung{Threshold: l.Threshold, Pct: l.Pct})
	}
	return out
}

func toTrendline(line config.Trendline) Trendline {
	return Trendline{
		StartAt:    line.Start.Date.Time,
		StartPrice: line.Start.Price,
		EndAt:      line.End.Date.Time,
		EndPrice:   line.End.Price,
		ValidUntil: line.ValidUntil.Time,
	}
}
