package strategy

import (
	"errors"
	"fmt"

	"kimp-trend-bot/internal/config"
)

var ErrOrderTooLarge = errors.New("order notional exceeds configured maximum")

// CheckOrder rejects orders whose KRW notional is above risk.max_order_krw.
func CheckOrder(cfg config.RiskConfig, d Decision) error {
	if cfg.MaxOrderKRW <= 0 || !d.IsOrder() {
		return nil
	}
	notional, ok := orderNotionalKRW(d)
	if !ok {
		return nil
	}
	if notional > cfg.MaxOrderKRW {
		return fmt.Errorf("%s %s notional %.0f above %.0f: %w", d.Action, d.Symbol, notional, cfg.MaxOrderKRW, ErrOrderTooLarge)
	}
	return nil
}

func orderNotionalKRW(d Decision) (float64, bool) {
	switch d.Action {
	case ActionBuy:
		return d.Amount, true
	case ActionSell:
		if !d.Observation.HasDomesticPrice {
			return 0, false
		}
		return d.Amount * d.Observation.DomesticPrice, true
	}
	return 0, false
}
