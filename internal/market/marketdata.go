package market

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	binancews "kimp-trend-bot/internal/binance/ws"
	"kimp-trend-bot/internal/fx"

	"go.uber.org/zap"
)

// Instrument is everything needed to price one traded symbol.
// A positive PegUSD replaces the reference market lookup.
type Instrument struct {
	Symbol          string
	Market          string
	ReferenceSymbol string
	PegUSD          float64
}

type DomesticQuoter interface {
	Tickers(ctx context.Context, markets []string) (map[string]float64, error)
}

type ReferenceQuoter interface {
	Prices(ctx context.Context, symbols []string) (map[string]float64, error)
}

type RateSource interface {
	Rate(ctx context.Context) (fx.Quote, error)
}

type Stream interface {
	Subscribe(ctx context.Context, streams ...string) error
	Run(ctx context.Context, handler func(json.RawMessage)) error
}

// Snapshot is one cycle's raw prices. Missing entries mean the source was unavailable.
type Snapshot struct {
	At        time.Time
	Domestic  map[string]float64
	Reference map[string]float64
	Rate      fx.Quote
	HasRate   bool
}

func (s Snapshot) DomesticPrice(inst Instrument) (float64, bool) {
	price, ok := s.Domestic[inst.Market]
	return price, ok && price > 0
}

func (s Snapshot) ReferencePrice(inst Instrument) (float64, bool) {
	if inst.PegUSD > 0 {
		return inst.PegUSD, true
	}
	price, ok := s.Reference[inst.ReferenceSymbol]
	return price, ok && price > 0
}

type streamPrice struct {
	price float64
	at    time.Time
}

type MarketData struct {
	domestic  DomesticQuoter
	reference ReferenceQuoter
	stream    Stream
	rates     RateSource
	maxAge    time.Duration
	log       *zap.Logger
	now       func() time.Time

	mu           sync.RWMutex
	streamPrices map[string]streamPrice
}

// New wires the price sources. stream may be nil, in which case every reference price comes from REST.
func New(domestic DomesticQuoter, reference ReferenceQuoter, stream Stream, rates RateSource, maxAge time.Duration, log *zap.Logger) *MarketData {
	if log == nil {
		log = zap.NewNop()
	}
	return &MarketData{
		domestic:     domestic,
		reference:    reference,
		stream:       stream,
		rates:        rates,
		maxAge:       maxAge,
		log:          log,
		now:          time.Now,
		streamPrices: make(map[string]streamPrice),
	}
}

// Start subscribes the reference stream for every instrument and runs it until ctx ends.
func (m *MarketData) Start(ctx context.Context, instruments []Instrument) {
	if m.stream == nil {
		return
	}
	var streams []string
	for _, inst := range instruments {
		if inst.PegUSD > 0 || inst.ReferenceSymbol == "" {
			continue
		}
		streams = append(streams, binancews.MiniTickerStream(inst.ReferenceSymbol))
	}
	if len(streams) == 0 {
		return
	}
	if err := m.stream.Subscribe(ctx, streams...); err != nil {
		m.log.Warn("reference stream subscribe failed", zap.Error(err))
	}
	go func() {
		if err := m.stream.Run(ctx, m.handleStream); err != nil && ctx.Err() == nil {
			m.log.Warn("reference stream stopped", zap.Error(err))
		}
	}()
}

func (m *MarketData) handleStream(raw json.RawMessage) {
	ticker, ok := binancews.ParseMiniTicker(raw)
	if !ok {
		return
	}
	m.mu.Lock()
	m.streamPrices[ticker.Symbol] = streamPrice{price: ticker.Close.InexactFloat64(), at: m.now()}
	m.mu.Unlock()
}

func (m *MarketData) freshStreamPrice(symbol string, now time.Time) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.streamPrices[symbol]
	if !ok || now.Sub(sp.at) > m.maxAge {
		return 0, false
	}
	return sp.price, true
}

// Snapshot fetches every price the instruments need. Failures are logged and leave gaps.
func (m *MarketData) Snapshot(ctx context.Context, instruments []Instrument) Snapshot {
	now := m.now()
	snap := Snapshot{
		At:        now.UTC(),
		Domestic:  map[string]float64{},
		Reference: map[string]float64{},
	}

	markets := make([]string, 0, len(instruments))
	var restSymbols []string
	seen := make(map[string]struct{})
	for _, inst := range instruments {
		markets = append(markets, inst.Market)
		if inst.PegUSD > 0 || inst.ReferenceSymbol == "" {
			continue
		}
		if _, dup := seen[inst.ReferenceSymbol]; dup {
			continue
		}
		seen[inst.ReferenceSymbol] = struct{}{}
		if price, ok := m.freshStreamPrice(inst.ReferenceSymbol, now); ok {
			snap.Reference[inst.ReferenceSymbol] = price
			continue
		}
		restSymbols = append(restSymbols, inst.ReferenceSymbol)
	}

	if m.domestic != nil && len(markets) > 0 {
		prices, err := m.domestic.Tickers(ctx, markets)
		if err != nil {
			m.log.Warn("domestic price fetch failed", zap.Strings("markets", markets), zap.Error(err))
		}
		for k, v := range prices {
			snap.Domestic[k] = v
		}
	}
	if m.reference != nil && len(restSymbols) > 0 {
		prices, err := m.reference.Prices(ctx, restSymbols)
		if err != nil {
			m.log.Warn("reference price fetch failed", zap.Strings("symbols", restSymbols), zap.Error(err))
		}
		for k, v := range prices {
			snap.Reference[k] = v
		}
	}
	if m.rates != nil {
		quote, err := m.rates.Rate(ctx)
		if err != nil {
			m.log.Warn("exchange rate unavailable", zap.Error(err))
		} else {
			snap.Rate, snap.HasRate = quote, true
		}
	}
	return snap
}
