package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ExchangeRateAPI reads USD/KRW from exchangerate-api.com v6.
type ExchangeRateAPI struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewExchangeRateAPI(baseURL, apiKey string, timeout time.Duration) (*ExchangeRateAPI, error) {
	if apiKey == "" {
		return nil, errors.New("exchange rate api key is required")
	}
	return &ExchangeRateAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (e *ExchangeRateAPI) USDKRW(ctx context.Context) (float64, error) {
	target := fmt.Sprintf("%s/%s/latest/USD", e.baseURL, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	if payload.Result != "success" {
		return 0, fmt.Errorf("exchange rate api result %q: %s", payload.Result, payload.ErrorType)
	}
	rate, ok := payload.ConversionRates["KRW"]
	if !ok {
		return 0, errors.New("KRW missing from conversion_rates")
	}
	return rate, nil
}
