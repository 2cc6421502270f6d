package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"kimp-trend-bot/internal/app"
	"kimp-trend-bot/internal/config"
	"kimp-trend-bot/internal/logging"

	"go.uber.org/zap"
)

const defaultVerifyEnvFile = ".env"

type verifyOutput struct {
	Strategy       string   `json:"strategy"`
	Symbol         string   `json:"symbol"`
	Action         string   `json:"action"`
	Unit           string   `json:"unit,omitempty"`
	Amount         float64  `json:"amount"`
	Reason         string   `json:"reason"`
	Rung           int      `json:"rung"`
	Status         string   `json:"status"`
	DomesticPrice  *float64 `json:"domestic_price,omitempty"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
	Rate           *float64 `json:"rate,omitempty"`
	RateStale      bool     `json:"rate_stale,omitempty"`
	Premium        *float64 `json:"premium_pct,omitempty"`
	EntryLine      *float64 `json:"entry_line,omitempty"`
	EntryDeviation *float64 `json:"entry_dev_pct,omitempty"`
	ExitLine       *float64 `json:"exit_line,omitempty"`
	ExitDeviation  *float64 `json:"exit_dev_pct,omitempty"`
	PnL            *float64 `json:"pnl_pct,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout for the evaluation")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	cfg.Simulation = true
	cfg.Telegram.Enabled = false
	cfg.Timescale.Enabled = false
	disabled := false
	cfg.Metrics.Enabled = &disabled

	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()
	for _, warning := range cfg.Lint(time.Now()) {
		log.Warn("config warning", zap.String("warning", warning))
	}

	application, err := app.New(cfg, log, app.ReadOnlyState())
	if err != nil {
		fatal(err)
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	outcomes, err := application.RunOnce(ctx)
	if err != nil {
		log.Warn("cycle incomplete", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, out := range outcomes {
		if err := enc.Encode(toOutput(out)); err != nil {
			fatal(err)
		}
	}
}

func toOutput(out app.Outcome) verifyOutput {
	d := out.Decision
	obs := d.Observation
	v := verifyOutput{
		Strategy: d.Strategy,
		Symbol:   d.Symbol,
		Action:   string(d.Action),
		Unit:     d.Unit,
		Amount:   d.Amount,
		Reason:   string(d.Reason),
		Rung:     d.Rung,
		Status:   out.Status,
	}
	v.DomesticPrice = optional(obs.DomesticPrice, obs.HasDomesticPrice)
	v.ReferencePrice = optional(obs.ReferencePrice, obs.HasReferencePrice)
	v.Rate = optional(obs.Rate, obs.HasRate)
	v.RateStale = obs.RateStale
	v.Premium = optional(obs.Premium, obs.HasPremium)
	v.EntryLine = optional(d.EntryLine, d.HasEntryDeviation && d.EntryLine > 0)
	v.EntryDeviation = optional(d.EntryDeviation, d.HasEntryDeviation)
	v.ExitLine = optional(d.ExitLine, d.HasExitDeviation && d.ExitLine > 0)
	v.ExitDeviation = optional(d.ExitDeviation, d.HasExitDeviation)
	v.PnL = optional(d.PnLPct, d.HasPnL)
	if out.Err != nil {
		v.Error = out.Err.Error()
	}
	return v
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "verify: %v\n", err)
	os.Exit(1)
}
