package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"kimp-trend-bot/internal/account"
	"kimp-trend-bot/internal/alerts"
	"kimp-trend-bot/internal/binance/rest"
	"kimp-trend-bot/internal/binance/ws"
	"kimp-trend-bot/internal/config"
	"kimp-trend-bot/internal/exec"
	"kimp-trend-bot/internal/fx"
	"kimp-trend-bot/internal/market"
	"kimp-trend-bot/internal/metrics"
	"kimp-trend-bot/internal/state"
	"kimp-trend-bot/internal/state/sqlite"
	"kimp-trend-bot/internal/strategy"
	"kimp-trend-bot/internal/timescale"
	"kimp-trend-bot/internal/upbit"

	"go.uber.org/zap"
)

const (
	StatusWait      = "wait"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
	StatusPlaced    = "placed"
	StatusSimulated = "simulated"
	StatusDuplicate = "duplicate"
)

type App struct {
	cfg         *config.Config
	log         *zap.Logger
	store       state.Store
	readOnly    bool
	market      *market.MarketData
	account     *account.Account
	executor    *exec.Executor
	engines     []strategy.Engine
	instruments []market.Instrument
	metrics     *metrics.Metrics
	prom        *metrics.Prometheus
	alerts      *alerts.Telegram
	timescale   *timescale.Writer
	now         func() time.Time
}

// Outcome is what happened to one strategy's decision in a cycle.
type Outcome struct {
	Decision strategy.Decision
	Status   string
	OrderID  string
	Err      error
}

type Option func(*App)

// ReadOnlyState restores trackers from the store but never writes back.
func ReadOnlyState() Option {
	return func(a *App) { a.readOnly = true }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	signer, err := upbit.NewSigner(cfg.Upbit.AccessKey, cfg.Upbit.SecretKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	upbitClient := upbit.New(cfg.Upbit.BaseURL, cfg.Upbit.Timeout, signer, log)
	binanceClient := rest.New(cfg.Binance.BaseURL, cfg.Binance.Timeout, log)
	var stream market.Stream
	if cfg.Binance.WSEnabled {
		stream = ws.New(cfg.Binance.WSURL, cfg.Binance.ReconnectDelay, cfg.Binance.PingInterval, log)
	}
	var provider fx.Provider = fx.Static(cfg.FX.StaticRate)
	if cfg.FX.APIKey != "" {
		api, err := fx.NewExchangeRateAPI(cfg.FX.BaseURL, cfg.FX.APIKey, cfg.FX.Timeout)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		provider = api
	}
	rates := fx.NewSource(provider, cfg.FX.MinRefresh, log)

	engines, instruments, err := buildEngines(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	journal, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("timescale: %w", err)
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		store:       store,
		market:      market.New(upbitClient, binanceClient, stream, rates, cfg.Binance.MaxPriceAge, log),
		account:     account.New(upbitClient, log),
		engines:     engines,
		instruments: instruments,
		metrics:     metrics.NewNoop(),
		alerts:      alerts.NewTelegram(cfg.Telegram, log),
		timescale:   journal,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.Metrics.EnabledValue() && !a.readOnly {
		a.prom = metrics.NewPrometheus()
		a.metrics = a.prom.Metrics
	}
	var orderStore state.Store = store
	if a.readOnly {
		orderStore = nil
	}
	a.executor = exec.New(upbitClient, orderStore, log, exec.Options{
		Simulation:     cfg.Simulation,
		MaxAttempts:    cfg.Exec.MaxAttempts,
		InitialBackoff: cfg.Exec.InitialBackoff,
	})
	a.restore(context.Background())
	return a, nil
}

func buildEngines(cfg *config.Config) ([]strategy.Engine, []market.Instrument, error) {
	active := cfg.ActiveStrategies()
	engines := make([]strategy.Engine, 0, len(active))
	var instruments []market.Instrument
	seen := make(map[string]struct{})
	for _, sc := range active {
		engine, err := strategy.New(sc, cfg.Limits)
		if err != nil {
			return nil, nil, err
		}
		engines = append(engines, engine)
		if _, dup := seen[sc.Symbol]; dup {
			continue
		}
		seen[sc.Symbol] = struct{}{}
		instruments = append(instruments, market.Instrument{
			Symbol:          sc.Symbol,
			Market:          sc.Market(),
			ReferenceSymbol: sc.ReferenceSymbol,
			PegUSD:          sc.ReferencePegUSD,
		})
	}
	return engines, instruments, nil
}

func (a *App) restore(ctx context.Context) {
	for _, engine := range a.engines {
		tracker, ok, err := state.LoadTracker(ctx, a.store, engine.Name())
		if err != nil {
			a.log.Warn("tracker restore failed, starting fresh", zap.String("strategy", engine.Name()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		engine.Restore(tracker)
		a.log.Info("tracker restored",
			zap.String("strategy", engine.Name()),
			zap.Float64("entry_spend", tracker.CumulativeEntrySpend),
			zap.Float64("avg_entry", tracker.WeightedAvgEntryPrice),
			zap.Bool("exit_base_set", tracker.ExitBaseEstablished),
			zap.Int("last_exit_idx", tracker.LastExitStepIndex),
		)
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	a.log.Info("starting monitor loop",
		zap.Duration("interval", a.cfg.Loop.Interval),
		zap.Bool("simulation", a.cfg.Simulation),
		zap.Int("strategies", len(a.engines)),
	)
	a.timescale.Start(ctx)
	a.market.Start(ctx, a.instruments)
	if a.prom != nil {
		go func() {
			if err := a.serveMetrics(ctx); err != nil {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	a.runCycle(ctx)
	ticker := time.NewTicker(a.cfg.Loop.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

// RunOnce evaluates every strategy a single time.
func (a *App) RunOnce(ctx context.Context) ([]Outcome, error) {
	return a.cycle(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.timescale != nil {
		errs = append(errs, a.timescale.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func (a *App) runCycle(ctx context.Context) {
	if _, err := a.cycle(ctx); err != nil && ctx.Err() == nil {
		a.log.Warn("cycle failed", zap.Error(err))
	}
}

func (a *App) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.prom.Handler())
	server := &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	a.log.Info("metrics listening", zap.String("address", a.cfg.Metrics.Address), zap.String("path", a.cfg.Metrics.Path))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
