package upbit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	http    *http.Client
	signer  *Signer
	log     *zap.Logger
}

// New builds a client. A nil signer limits the client to public quotation endpoints.
func New(baseURL string, timeout time.Duration, signer *Signer, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		signer: signer,
		log:    log,
	}
}

// Tickers returns the last trade price per market code.
func (c *Client) Tickers(ctx context.Context, markets []string) (map[string]float64, error) {
	if len(markets) == 0 {
		return map[string]float64{}, nil
	}
	query := url.Values{"markets": {strings.Join(markets, ",")}}
	var tickers []Ticker
	if err := c.do(ctx, http.MethodGet, "/v1/ticker", query, nil, false, &tickers); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if t.TradePrice > 0 {
			out[t.Market] = t.TradePrice
		}
	}
	return out, nil
}

func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, nil, true, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Market == "" {
		return Order{}, errors.New("order market is required")
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", nil, req.params(), true, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// OrderByIdentifier looks an order up by the client identifier it was placed with.
func (c *Client) OrderByIdentifier(ctx context.Context, identifier string) (Order, error) {
	var order Order
	query := url.Values{"identifier": {identifier}}
	if err := c.do(ctx, http.MethodGet, "/v1/order", query, nil, true, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body map[string]string, private bool, out any) error {
	target := c.baseURL + path
	encoded := query.Encode()
	if encoded != "" {
		target += "?" + encoded
	}
	var reader io.Reader
	hashed := encoded
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
		hashed = bodyQuery(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if private {
		token, err := c.signer.Token(hashed)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// bodyQuery renders a JSON body as the unescaped query string Upbit hashes.
func bodyQuery(body map[string]string) string {
	values := url.Values{}
	for k, v := range body {
		values.Set(k, v)
	}
	raw, err := url.QueryUnescape(values.Encode())
	if err != nil {
		return values.Encode()
	}
	return raw
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		apiErr.Name = envelope.Error.Name
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
