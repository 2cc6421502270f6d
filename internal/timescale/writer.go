package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"kimp-trend-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

type Observation struct {
	Time           time.Time
	Strategy       string
	Symbol         string
	DomesticPrice  float64
	ReferencePrice float64
	Rate           float64
	RateStale      bool
	Premium        float64
	HasPremium     bool
}

type Decision struct {
	Time      time.Time
	Strategy  string
	Symbol    string
	Action    string
	Unit      string
	Amount    float64
	Reason    string
	Rung      int
	Status    string
	OrderID   string
	Deviation float64
}

type Writer struct {
	db           *sql.DB
	log          *zap.Logger
	schema       string
	observations chan Observation
	decisions    chan Decision
	started      atomic.Bool
	dropObs      atomic.Uint64
	dropDecision atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:           db,
		log:          log,
		schema:       schema,
		observations: make(chan Observation, queueSize),
		decisions:    make(chan Decision, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueObservation(obs Observation) {
	if w == nil {
		return
	}
	select {
	case w.observations <- obs:
	default:
		if w.dropObs.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale observation queue full")
		}
	}
}

func (w *Writer) EnqueueDecision(d Decision) {
	if w == nil {
		return
	}
	select {
	case w.decisions <- d:
	default:
		if w.dropDecision.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale decision queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs := <-w.observations:
			w.writeObservation(ctx, obs)
		case d := <-w.decisions:
			w.writeDecision(ctx, d)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		strategy TEXT NOT NULL,
		symbol TEXT NOT NULL,
		domestic_price DOUBLE PRECISION NOT NULL,
		reference_price DOUBLE PRECISION NOT NULL,
		rate DOUBLE PRECISION NOT NULL,
		rate_stale BOOLEAN NOT NULL,
		premium_pct DOUBLE PRECISION,
		PRIMARY KEY (ts, strategy)
	)`, w.table("observations"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		strategy TEXT NOT NULL,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		unit TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		reason TEXT NOT NULL,
		rung INTEGER NOT NULL,
		status TEXT NOT NULL,
		order_id TEXT NOT NULL,
		deviation DOUBLE PRECISION NOT NULL
	)`, w.table("decisions"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	for _, name := range []string{"observations", "decisions"} {
		if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table(name))); err != nil && w.log != nil {
			w.log.Warn("timescale hypertable create failed", zap.String("table", name), zap.Error(err))
		}
	}
	return nil
}

func (w *Writer) writeObservation(ctx context.Context, obs Observation) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	var premium sql.NullFloat64
	if obs.HasPremium {
		premium = sql.NullFloat64{Float64: obs.Premium, Valid: true}
	}
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, strategy, symbol, domestic_price, reference_price, rate, rate_stale, premium_pct
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8
	)
	ON CONFLICT (ts, strategy) DO NOTHING`, w.table("observations"))
	if _, err := w.db.ExecContext(ctx, query,
		obs.Time,
		obs.Strategy,
		obs.Symbol,
		obs.DomesticPrice,
		obs.ReferencePrice,
		obs.Rate,
		obs.RateStale,
		premium,
	); err != nil && w.log != nil {
		w.log.Warn("timescale observation insert failed", zap.Error(err))
	}
}

func (w *Writer) writeDecision(ctx context.Context, d Decision) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, strategy, symbol, action, unit, amount, reason, rung, status, order_id, deviation
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	)`, w.table("decisions"))
	if _, err := w.db.ExecContext(ctx, query,
		d.Time,
		d.Strategy,
		d.Symbol,
		d.Action,
		d.Unit,
		d.Amount,
		d.Reason,
		d.Rung,
		d.Status,
		d.OrderID,
		d.Deviation,
	); err != nil && w.log != nil {
		w.log.Warn("timescale decision insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
