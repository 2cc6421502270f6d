package metrics

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
}

// GaugeVec is a gauge keyed by a single label value.
type GaugeVec interface {
	With(label string) Gauge
}

type Metrics struct {
	OrdersPlaced    Counter
	OrdersFailed    Counter
	OrdersSimulated Counter
	Cycles          Counter
	CycleErrors     Counter
	FXStale         Counter
	Premium         GaugeVec
	FXRate          Gauge
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type noopGauge struct{}

func (noopGauge) Set(float64) {}

func (noopGauge) With(string) Gauge { return noopGauge{} }

func NewNoop() *Metrics {
	n := noopCounter{}
	g := noopGauge{}
	return &Metrics{
		OrdersPlaced:    n,
		OrdersFailed:    n,
		OrdersSimulated: n,
		Cycles:          n,
		CycleErrors:     n,
		FXStale:         n,
		Premium:         g,
		FXRate:          g,
	}
}
