package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        LoggingConfig    `yaml:"log"`
	Loop       LoopConfig       `yaml:"loop"`
	Simulation bool             `yaml:"simulation"`
	Upbit      UpbitConfig      `yaml:"upbit"`
	Binance    BinanceConfig    `yaml:"binance"`
	FX         FXConfig         `yaml:"fx"`
	Limits     LimitsConfig     `yaml:"limits"`
	Risk       RiskConfig       `yaml:"risk"`
	Exec       ExecConfig       `yaml:"exec"`
	State      StateConfig      `yaml:"state"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Timescale  TimescaleConfig  `yaml:"timescale"`
	Strategies []StrategyConfig `yaml:"strategies"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LoopConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type UpbitConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
}

type BinanceConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	WSEnabled      bool          `yaml:"ws_enabled"`
	WSURL          string        `yaml:"ws_url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxPriceAge    time.Duration `yaml:"max_price_age"`
}

type FXConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MinRefresh time.Duration `yaml:"min_refresh"`
	StaticRate float64       `yaml:"static_rate"`
}

// LimitsConfig holds exchange minimums shared by every strategy.
type LimitsConfig struct {
	MinOrderKRW    float64 `yaml:"min_order_krw"`
	MinTradableQty float64 `yaml:"min_tradable_qty"`
}

type RiskConfig struct {
	MaxOrderKRW float64 `yaml:"max_order_krw"`
}

type ExecConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled == nil || *m.Enabled
}

type TelegramConfig struct {
	Enabled bool          `yaml:"enabled"`
	Token   string        `yaml:"token"`
	ChatID  string        `yaml:"chat_id"`
	Timeout time.Duration `yaml:"timeout"`
}

type TimescaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	QueueSize int    `yaml:"queue_size"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Loop.Interval == 0 {
		cfg.Loop.Interval = 60 * time.Second
	}
	if cfg.Upbit.BaseURL == "" {
		cfg.Upbit.BaseURL = "https://api.upbit.com"
	}
	if cfg.Upbit.Timeout == 0 {
		cfg.Upbit.Timeout = 10 * time.Second
	}
	if cfg.Binance.BaseURL == "" {
		cfg.Binance.BaseURL = "https://api.binance.com"
	}
	if cfg.Binance.Timeout == 0 {
		cfg.Binance.Timeout = 10 * time.Second
	}
	if cfg.Binance.WSURL == "" {
		cfg.Binance.WSURL = "wss://stream.binance.com:9443/ws"
	}
	if cfg.Binance.ReconnectDelay == 0 {
		cfg.Binance.ReconnectDelay = 3 * time.Second
	}
	if cfg.Binance.PingInterval == 0 {
		cfg.Binance.PingInterval = 30 * time.Second
	}
	if cfg.Binance.MaxPriceAge == 0 {
		cfg.Binance.MaxPriceAge = 15 * time.Second
	}
	if cfg.FX.BaseURL == "" {
		cfg.FX.BaseURL = "https://v6.exchangerate-api.com/v6"
	}
	if cfg.FX.Timeout == 0 {
		cfg.FX.Timeout = 10 * time.Second
	}
	if cfg.FX.MinRefresh == 0 {
		cfg.FX.MinRefresh = 10 * time.Minute
	}
	if cfg.FX.StaticRate == 0 {
		cfg.FX.StaticRate = 1350.0
	}
	if cfg.Limits.MinOrderKRW == 0 {
		cfg.Limits.MinOrderKRW = 10000
	}
	if cfg.Limits.MinTradableQty == 0 {
		cfg.Limits.MinTradableQty = 1.0
	}
	if cfg.Exec.MaxAttempts <= 0 {
		cfg.Exec.MaxAttempts = 1
	}
	if cfg.Exec.InitialBackoff == 0 {
		cfg.Exec.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/kimp-trend-bot.db"
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9001"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 10 * time.Second
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize <= 0 {
		cfg.Timescale.QueueSize = 1024
	}
	for i := range cfg.Strategies {
		applyStrategyDefaults(&cfg.Strategies[i], cfg.Limits)
	}
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Upbit.AccessKey, "UPBIT_ACCESS_KEY")
	overrideString(&cfg.Upbit.SecretKey, "UPBIT_SECRET_KEY")
	overrideString(&cfg.FX.APIKey, "EXCHANGE_RATE_API_KEY")
	overrideString(&cfg.FX.BaseURL, "EXCHANGE_RATE_URL")
	overrideString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	overrideString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	overrideString(&cfg.Timescale.DSN, "TIMESCALE_DSN")
	if val, ok := os.LookupEnv("SIMULATION_MODE"); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes", "on":
			cfg.Simulation = true
		case "0", "false", "no", "off":
			cfg.Simulation = false
		}
	}
}

func overrideString(dst *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = val
	}
}

func validate(cfg *Config) error {
	if cfg.Upbit.AccessKey == "" || cfg.Upbit.SecretKey == "" {
		return errors.New("upbit access_key and secret_key are required")
	}
	if cfg.Loop.Interval < time.Second {
		return errors.New("loop.interval must be >= 1s")
	}
	if cfg.Risk.MaxOrderKRW < 0 {
		return errors.New("risk.max_order_krw must be >= 0")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram token and chat_id are required when telegram is enabled")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	if len(cfg.ActiveStrategies()) == 0 {
		return errors.New("at least one active strategy is required")
	}
	seen := make(map[string]struct{}, len(cfg.Strategies))
	for i := range cfg.Strategies {
		s := &cfg.Strategies[i]
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("strategy %q is defined more than once", s.Name)
		}
		seen[s.Name] = struct{}{}
		if err := validateStrategy(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) ActiveStrategies() []StrategyConfig {
	out := make([]StrategyConfig, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// Lint reports configurations that load but are probably mistakes.
func (c *Config) Lint(now time.Time) []string {
	var warnings []string
	if c.FX.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("fx.api_key not set, using static rate %.2f", c.FX.StaticRate))
	}
	for _, s := range c.ActiveStrategies() {
		warnings = append(warnings, lintStrategy(s, now)...)
	}
	return warnings
}
