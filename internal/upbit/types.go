package upbit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

type OrdType string

const (
	// OrdTypePrice is a market buy sized by KRW notional.
	OrdTypePrice OrdType = "price"
	// OrdTypeMarket is a market sell sized by volume.
	OrdTypeMarket OrdType = "market"
)

type Ticker struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
	Timestamp  int64   `json:"timestamp"`
}

type Account struct {
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	Locked       decimal.Decimal `json:"locked"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	UnitCurrency string          `json:"unit_currency"`
}

type OrderRequest struct {
	Market     string
	Side       Side
	OrdType    OrdType
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Identifier string
}

func (r OrderRequest) params() map[string]string {
	p := map[string]string{
		"market":   r.Market,
		"side":     string(r.Side),
		"ord_type": string(r.OrdType),
	}
	if !r.Price.IsZero() {
		p["price"] = r.Price.String()
	}
	if !r.Volume.IsZero() {
		p["volume"] = r.Volume.String()
	}
	if r.Identifier != "" {
		p["identifier"] = r.Identifier
	}
	return p
}

type Order struct {
	UUID            string              `json:"uuid"`
	Side            Side                `json:"side"`
	OrdType         OrdType             `json:"ord_type"`
	Price           decimal.NullDecimal `json:"price"`
	State           string              `json:"state"`
	Market          string              `json:"market"`
	CreatedAt       string              `json:"created_at"`
	Volume          decimal.NullDecimal `json:"volume"`
	RemainingVolume decimal.NullDecimal `json:"remaining_volume"`
	ExecutedVolume  decimal.NullDecimal `json:"executed_volume"`
	TradesCount     int                 `json:"trades_count"`
	Identifier      string              `json:"identifier"`
}

// APIError is Upbit's {"error":{"name","message"}} body with the HTTP status.
type APIError struct {
	Status  int
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Name == "" && e.Message == "" {
		return fmt.Sprintf("upbit http %d", e.Status)
	}
	return fmt.Sprintf("upbit http %d: %s: %s", e.Status, e.Name, e.Message)
}

func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
