package ws

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// MiniTicker is the 24hrMiniTicker stream event.
type MiniTicker struct {
	Event     string          `json:"e"`
	EventTime int64           `json:"E"`
	Symbol    string          `json:"s"`
	Close     decimal.Decimal `json:"c"`
}

func MiniTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@miniTicker"
}

// ParseMiniTicker returns false for subscription acks and other non-ticker frames.
func ParseMiniTicker(raw json.RawMessage) (MiniTicker, bool) {
	var t MiniTicker
	if err := json.Unmarshal(raw, &t); err != nil {
		return MiniTicker{}, false
	}
	if t.Event != "24hrMiniTicker" || t.Symbol == "" || !t.Close.IsPositive() {
		return MiniTicker{}, false
	}
	return t, true
}
