package market

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"kimp-trend-bot/internal/fx"
)

func TestObserveComputesPremium(t *testing.T) {
	md := New(
		stubDomestic{prices: map[string]float64{"KRW-USDT": 1377, "KRW-ETH": 4800000}},
		&stubReference{prices: map[string]float64{"ETHUSDT": 3500}}, nil,
		stubRates{quote: fx.Quote{Rate: 1350}},
		time.Minute, nil,
	)
	obs := md.Observe(context.Background(), instruments)
	usdt := obs["USDT"]
	if !usdt.HasPremium || math.Abs(usdt.Premium-2.0) > 1e-9 {
		t.Fatalf("expected premium 2.0, got %+v", usdt)
	}
	eth := obs["ETH"]
	if !eth.HasReferencePrice || eth.ReferencePrice != 3500 || eth.Rate != 1350 {
		t.Fatalf("unexpected eth observation %+v", eth)
	}
}

func TestObserveCarriesStaleRate(t *testing.T) {
	md := New(
		stubDomestic{prices: map[string]float64{"KRW-USDT": 1377}},
		&stubReference{}, nil,
		stubRates{quote: fx.Quote{Rate: 1350, Stale: true}},
		time.Minute, nil,
	)
	obs := md.Observe(context.Background(), instruments[:1])["USDT"]
	if !obs.HasRate || !obs.RateStale || !obs.HasPremium {
		t.Fatalf("expected stale rate to still produce a premium, got %+v", obs)
	}
}

func TestObserveWithoutRateHasNoPremium(t *testing.T) {
	md := New(
		stubDomestic{prices: map[string]float64{"KRW-USDT": 1377}},
		&stubReference{}, nil,
		stubRates{err: errors.New("down")},
		time.Minute, nil,
	)
	obs := md.Observe(context.Background(), instruments[:1])["USDT"]
	if obs.HasRate || obs.HasPremium {
		t.Fatalf("expected no rate and no premium, got %+v", obs)
	}
	if !obs.HasDomesticPrice || !obs.HasReferencePrice {
		t.Fatalf("expected prices to survive a rate failure, got %+v", obs)
	}
}
