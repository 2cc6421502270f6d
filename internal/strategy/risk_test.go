package strategy

import (
	"errors"
	"testing"

	"kimp-trend-bot/internal/config"
)

func TestCheckOrderBuyNotional(t *testing.T) {
	cfg := config.RiskConfig{MaxOrderKRW: 500000}
	d := Decision{Action: ActionBuy, Amount: 600000}
	if err := CheckOrder(cfg, d); !errors.Is(err, ErrOrderTooLarge) {
		t.Fatalf("expected ErrOrderTooLarge, got %v", err)
	}
	d.Amount = 500000
	if err := CheckOrder(cfg, d); err != nil {
		t.Fatalf("expected order at the limit to pass, got %v", err)
	}
}

func TestCheckOrderSellUsesDomesticPrice(t *testing.T) {
	cfg := config.RiskConfig{MaxOrderKRW: 1000000}
	d := Decision{Action: ActionSell, Amount: 1000, Observation: Observation{DomesticPrice: 1400, HasDomesticPrice: true}}
	if err := CheckOrder(cfg, d); err == nil {
		t.Fatalf("expected sell notional error")
	}
	d.Observation.HasDomesticPrice = false
	if err := CheckOrder(cfg, d); err != nil {
		t.Fatalf("expected unknown notional to pass, got %v", err)
	}
}

func TestCheckOrderDisabled(t *testing.T) {
	d := Decision{Action: ActionBuy, Amount: 1e12}
	if err := CheckOrder(config.RiskConfig{}, d); err != nil {
		t.Fatalf("expected no limit, got %v", err)
	}
}
