package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.OrdersPlaced.Inc()
	prom.Metrics.OrdersFailed.Inc()
	prom.Metrics.OrdersSimulated.Inc()
	prom.Metrics.Cycles.Inc()
	prom.Metrics.Cycles.Inc()
	prom.Metrics.CycleErrors.Inc()
	prom.Metrics.FXStale.Inc()

	assertCounter(t, prom.ordersPlaced, 1)
	assertCounter(t, prom.ordersFailed, 1)
	assertCounter(t, prom.ordersSimulated, 1)
	assertCounter(t, prom.cycles, 2)
	assertCounter(t, prom.cycleErrors, 1)
	assertCounter(t, prom.fxStale, 1)
}

func TestPrometheusGauges(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.Premium.With("USDT").Set(1.25)
	prom.Metrics.Premium.With("ETH").Set(-0.5)
	prom.Metrics.FXRate.Set(1380)

	if got := testutil.ToFloat64(prom.premium.WithLabelValues("USDT")); got != 1.25 {
		t.Fatalf("expected 1.25, got %v", got)
	}
	if got := testutil.ToFloat64(prom.premium.WithLabelValues("ETH")); got != -0.5 {
		t.Fatalf("expected -0.5, got %v", got)
	}
	if got := testutil.ToFloat64(prom.fxRate); got != 1380 {
		t.Fatalf("expected 1380, got %v", got)
	}
}

func TestPrometheusHandlerExposesNamespace(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.Cycles.Inc()
	rec := httptest.NewRecorder()
	prom.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "kimp_trend_bot_cycles_total 1") {
		t.Fatalf("expected cycles counter in output, got %s", body)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoop()
	m.OrdersPlaced.Inc()
	m.Premium.With("USDT").Set(1)
	m.FXRate.Set(1)
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
