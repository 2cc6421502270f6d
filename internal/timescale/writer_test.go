package timescale

import (
	"testing"

	"kimp-trend-bot/internal/config"

	"go.uber.org/zap"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	w, err := New(config.TimescaleConfig{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil writer when disabled")
	}
	// nil writer is safe to use
	w.EnqueueObservation(Observation{})
	w.EnqueueDecision(Decision{})
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(config.TimescaleConfig{Enabled: true}, zap.NewNop()); err == nil {
		t.Fatalf("expected dsn error")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	w := &Writer{
		log:          zap.NewNop(),
		schema:       "public",
		observations: make(chan Observation, 1),
		decisions:    make(chan Decision, 1),
	}
	w.EnqueueObservation(Observation{Strategy: "a"})
	w.EnqueueObservation(Observation{Strategy: "b"})
	w.EnqueueDecision(Decision{Strategy: "a"})
	w.EnqueueDecision(Decision{Strategy: "b"})
	if got := w.dropObs.Load(); got != 1 {
		t.Fatalf("expected 1 dropped observation, got %d", got)
	}
	if got := w.dropDecision.Load(); got != 1 {
		t.Fatalf("expected 1 dropped decision, got %d", got)
	}
	if w.table("decisions") != "public.decisions" {
		t.Fatalf("unexpected table name %s", w.table("decisions"))
	}
}
