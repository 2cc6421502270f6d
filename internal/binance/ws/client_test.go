package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

func TestClientSubscribesAndStreams(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	subCh := make(chan request, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req request
			if err := json.Unmarshal(data, &req); err != nil {
				continue
			}
			select {
			case subCh <- req:
			default:
			}
			if req.Method == "SUBSCRIBE" {
				event := `{"e":"24hrMiniTicker","E":1700000000000,"s":"ETHUSDT","c":"3512.45"}`
				_ = conn.Write(ctx, websocket.MessageText, []byte(event))
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := New(wsURL, 10*time.Millisecond, 0, zap.NewNop())
	if err := client.Subscribe(ctx, MiniTickerStream("ETHUSDT")); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tickers := make(chan MiniTicker, 1)
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		_ = client.Run(runCtx, func(raw json.RawMessage) {
			if ticker, ok := ParseMiniTicker(raw); ok {
				select {
				case tickers <- ticker:
				default:
				}
			}
		})
	}()

	select {
	case req := <-subCh:
		if req.Method != "SUBSCRIBE" || len(req.Params) != 1 || req.Params[0] != "ethusdt@miniTicker" {
			t.Fatalf("unexpected subscribe %+v", req)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for subscribe")
	}
	select {
	case ticker := <-tickers:
		if ticker.Symbol != "ETHUSDT" || ticker.Close.InexactFloat64() != 3512.45 {
			t.Fatalf("unexpected ticker %+v", ticker)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for ticker")
	}
}

func TestClientSendsKeepalive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msgCh := make(chan request, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept ws: %v", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req request
			if json.Unmarshal(data, &req) == nil {
				select {
				case msgCh <- req:
				default:
				}
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := New(wsURL, 10*time.Millisecond, 20*time.Millisecond, zap.NewNop())
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		_ = client.Run(runCtx, nil)
	}()

	select {
	case msg := <-msgCh:
		if msg.Method != "LIST_SUBSCRIPTIONS" {
			t.Fatalf("expected keepalive, got %+v", msg)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for keepalive")
	}
}

func TestParseMiniTickerIgnoresAcks(t *testing.T) {
	if _, ok := ParseMiniTicker(json.RawMessage(`{"result":null,"id":1}`)); ok {
		t.Fatalf("expected ack to be ignored")
	}
}
