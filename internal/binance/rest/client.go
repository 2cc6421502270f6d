package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client reads public spot prices. No API key is needed for ticker endpoints.
type Client struct {
	api *binance.Client
	log *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	api := binance.NewClient("", "")
	if baseURL != "" {
		api.BaseURL = strings.TrimRight(baseURL, "/")
	}
	api.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{api: api, log: log}
}

// Prices returns the last price of each symbol, e.g. "ETHUSDT". Symbols that fail are left out
// and reported in the joined error.
func (c *Client) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	var errs []error
	for _, symbol := range symbols {
		price, err := c.Price(ctx, symbol)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[symbol] = price
	}
	return out, errors.Join(errs...)
}

func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance %s: %w", symbol, err)
	}
	for _, p := range prices {
		if p == nil || p.Symbol != symbol {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return 0, fmt.Errorf("binance %s: bad price %q: %w", symbol, p.Price, err)
		}
		if !price.IsPositive() {
			return 0, fmt.Errorf("binance %s: non-positive price", symbol)
		}
		return price.InexactFloat64(), nil
	}
	return 0, fmt.Errorf("binance %s: price missing from response", symbol)
}
