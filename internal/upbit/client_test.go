package upbit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner("access", "secret")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func parseToken(t *testing.T, header string) jwt.MapClaims {
	t.Helper()
	raw := strings.TrimPrefix(header, "Bearer ")
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	return token.Claims.(jwt.MapClaims)
}

func TestTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ticker" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("markets"); got != "KRW-USDT,KRW-ETH" {
			t.Fatalf("unexpected markets %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("public endpoint should not be signed")
		}
		_, _ = w.Write([]byte(`[{"market":"KRW-USDT","trade_price":1377.0},{"market":"KRW-ETH","trade_price":4850000}]`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, nil, nil)
	prices, err := client.Tickers(context.Background(), []string{"KRW-USDT", "KRW-ETH"})
	if err != nil {
		t.Fatalf("tickers: %v", err)
	}
	if prices["KRW-USDT"] != 1377 || prices["KRW-ETH"] != 4850000 {
		t.Fatalf("unexpected prices %v", prices)
	}
}

func TestAccountsSigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := parseToken(t, r.Header.Get("Authorization"))
		if claims["access_key"] != "access" {
			t.Fatalf("unexpected access key %v", claims["access_key"])
		}
		if _, ok := claims["query_hash"]; ok {
			t.Fatalf("expected no query hash without parameters")
		}
		_, _ = w.Write([]byte(`[{"currency":"KRW","balance":"1500000.5","locked":"0","avg_buy_price":"0","unit_currency":"KRW"},
			{"currency":"USDT","balance":"120.25","locked":"10","avg_buy_price":"1370","unit_currency":"KRW"}]`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, testSigner(t), nil)
	accounts, err := client.Accounts(context.Background())
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if !accounts[1].Balance.Equal(decimal.RequireFromString("120.25")) || !accounts[1].Locked.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected usdt account %+v", accounts[1])
	}
}

func TestAccountsRequireSigner(t *testing.T) {
	client := New("http://127.0.0.1:1", time.Second, nil, nil)
	if _, err := client.Accounts(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestPlaceOrderHashesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["side"] != "bid" || body["ord_type"] != "price" || body["price"] != "1200000" {
			t.Fatalf("unexpected body %v", body)
		}
		claims := parseToken(t, r.Header.Get("Authorization"))
		if claims["query_hash_alg"] != "SHA512" {
			t.Fatalf("expected SHA512 hash alg")
		}
		if claims["query_hash"] != hashOf(bodyQuery(body)) {
			t.Fatalf("query hash does not match body")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"u-1","side":"bid","ord_type":"price","price":"1200000","state":"wait","market":"KRW-USDT","volume":null,"identifier":"grid-1"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, testSigner(t), nil)
	order, err := client.PlaceOrder(context.Background(), OrderRequest{
		Market:     "KRW-USDT",
		Side:       SideBid,
		OrdType:    OrdTypePrice,
		Price:      decimal.NewFromInt(1200000),
		Identifier: "grid-1",
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.UUID != "u-1" || order.Volume.Valid {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestAPIErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"name":"insufficient_funds_bid","message":"not enough KRW"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, testSigner(t), nil)
	_, err := client.PlaceOrder(context.Background(), OrderRequest{Market: "KRW-USDT", Side: SideBid, OrdType: OrdTypePrice, Price: decimal.NewFromInt(10000)})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Name != "insufficient_funds_bid" || apiErr.Retryable() {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestOrderByIdentifierSignsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := parseToken(t, r.Header.Get("Authorization"))
		if claims["query_hash"] != hashOf("identifier=grid-1") {
			t.Fatalf("query hash does not match query")
		}
		_, _ = w.Write([]byte(`{"uuid":"u-1","state":"done","identifier":"grid-1","executed_volume":"880.1"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, testSigner(t), nil)
	order, err := client.OrderByIdentifier(context.Background(), "grid-1")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if order.State != "done" || !order.ExecutedVolume.Decimal.Equal(decimal.RequireFromString("880.1")) {
		t.Fatalf("unexpected order %+v", order)
	}
}
