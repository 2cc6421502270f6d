package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "kimp_trend_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (p promGauge) Set(v float64) {
	p.gauge.Set(v)
}

type promGaugeVec struct {
	vec *prometheus.GaugeVec
}

func (p promGaugeVec) With(label string) Gauge {
	return promGauge{p.vec.WithLabelValues(label)}
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	ordersPlaced    prometheus.Counter
	ordersFailed    prometheus.Counter
	ordersSimulated prometheus.Counter
	cycles          prometheus.Counter
	cycleErrors     prometheus.Counter
	fxStale         prometheus.Counter
	premium         *prometheus.GaugeVec
	fxRate          prometheus.Gauge
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersPlaced := newCounter("orders_placed_total", "Total number of orders accepted by the exchange.")
	ordersFailed := newCounter("orders_failed_total", "Total number of order placement failures.")
	ordersSimulated := newCounter("orders_simulated_total", "Total number of orders logged in simulation mode.")
	cycles := newCounter("cycles_total", "Total number of completed evaluation cycles.")
	cycleErrors := newCounter("cycle_errors_total", "Total number of cycles that hit a data or account error.")
	fxStale := newCounter("fx_stale_total", "Total number of cycles served with a stale or fallback FX rate.")
	premium := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "premium_pct",
		Help:      "Latest domestic premium over the reference price, in percent.",
	}, []string{"symbol"})
	fxRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "fx_rate",
		Help:      "Latest USD/KRW rate used for evaluation.",
	})

	registry.MustRegister(ordersPlaced, ordersFailed, ordersSimulated, cycles, cycleErrors, fxStale, premium, fxRate)

	m := &Metrics{
		OrdersPlaced:    promCounter{ordersPlaced},
		OrdersFailed:    promCounter{ordersFailed},
		OrdersSimulated: promCounter{ordersSimulated},
		Cycles:          promCounter{cycles},
		CycleErrors:     promCounter{cycleErrors},
		FXStale:         promCounter{fxStale},
		Premium:         promGaugeVec{premium},
		FXRate:          promGauge{fxRate},
	}

	return &Prometheus{
		Metrics:         m,
		registry:        registry,
		ordersPlaced:    ordersPlaced,
		ordersFailed:    ordersFailed,
		ordersSimulated: ordersSimulated,
		cycles:          cycles,
		cycleErrors:     cycleErrors,
		fxStale:         fxStale,
		premium:         premium,
		fxRate:          fxRate,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
