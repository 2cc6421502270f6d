package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type StrategyKind string

const (
	KindKimpGrid  StrategyKind = "KIMP_GRID"
	KindTrendline StrategyKind = "TRENDLINE"
)

type StrategyConfig struct {
	Name            string       `yaml:"name"`
	Symbol          string       `yaml:"symbol"`
	Kind            StrategyKind `yaml:"kind"`
	Active          bool         `yaml:"active"`
	SeedKRW         float64      `yaml:"seed_krw"`
	BuyLevels       []Rung       `yaml:"buy_levels"`
	SellLevels      []Rung       `yaml:"sell_levels"`
	ResetThreshold  float64      `yaml:"reset_threshold"`
	MinTradableQty  float64      `yaml:"min_tradable_qty"`
	ReferenceSymbol string       `yaml:"reference_symbol"`
	ReferencePegUSD float64      `yaml:"reference_peg_usd"`
	BuyLine         *Trendline   `yaml:"buy_line"`
	SellLine        *Trendline   `yaml:"sell_line"`
	StopLossPct     *float64     `yaml:"stop_loss_pct"`
	SellPartial     bool         `yaml:"sell_partial"`
}

// Market is the Upbit market code traded by the strategy.
func (s StrategyConfig) Market() string {
	return "KRW-" + s.Symbol
}

func (s StrategyConfig) StopLossValue() float64 {
	if s.StopLossPct == nil {
		return -100
	}
	return *s.StopLossPct
}

// Rung is one ladder step: a deviation threshold and the cumulative target percentage reached there.
// It decodes from either a [threshold, pct] pair or a {threshold, pct} map.
type Rung struct {
	Threshold float64 `yaml:"threshold"`
	Pct       float64 `yaml:"pct"`
}

func (r *Rung) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: ladder rung needs [threshold, pct], got %d values", value.Line, len(pair))
		}
		r.Threshold, r.Pct = pair[0], pair[1]
		return nil
	}
	type plain Rung
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Rung(p)
	return nil
}

type Trendline struct {
	Start      Point `yaml:"start"`
	End        Point `yaml:"end"`
	ValidUntil Date  `yaml:"valid_until"`
}

type Point struct {
	Date  Date    `yaml:"date"`
	Price float64 `yaml:"price"`
}

// Date accepts YYYY-MM-DD (UTC midnight) or RFC3339.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Time = parsed
	return nil
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return t.UTC(), nil
}

func applyStrategyDefaults(s *StrategyConfig, limits LimitsConfig) {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	s.Kind = StrategyKind(strings.ToUpper(strings.TrimSpace(string(s.Kind))))
	if s.MinTradableQty == 0 {
		s.MinTradableQty = limits.MinTradableQty
	}
	if s.ReferenceSymbol == "" && s.Symbol != "" {
		s.ReferenceSymbol = s.Symbol + "USDT"
	}
	if s.ReferencePegUSD == 0 && s.Symbol == "USDT" {
		s.ReferencePegUSD = 1.0
	}
	if s.Kind == KindTrendline && s.BuyLine != nil {
		s.SellLine = mergeTrendline(s.SellLine, *s.BuyLine)
	}
}

// mergeTrendline fills unset sell-line fields from the buy line.
func mergeTrendline(line *Trendline, fallback Trendline) *Trendline {
	if line == nil {
		copied := fallback
		return &copied
	}
	if line.Start.Date.IsZero() {
		line.Start.Date = fallback.Start.Date
	}
	if line.Start.Price == 0 {
		line.Start.Price = fallback.Start.Price
	}
	if line.End.Date.IsZero() {
		line.End.Date = fallback.End.Date
	}
	if line.End.Price == 0 {
		line.End.Price = fallback.End.Price
	}
	if line.ValidUntil.IsZero() {
		line.ValidUntil = fallback.ValidUntil
	}
	return line
}

func validateStrategy(s *StrategyConfig) error {
	if s.Name == "" {
		return errors.New("strategy name is required")
	}
	prefix := "strategy " + s.Name
	if s.Symbol == "" {
		return errors.New(prefix + ": symbol is required")
	}
	if s.SeedKRW <= 0 {
		return errors.New(prefix + ": seed_krw must be > 0")
	}
	if s.MinTradableQty < 0 {
		return errors.New(prefix + ": min_tradable_qty must be >= 0")
	}
	if err := validateLadder(entryOrder(s.BuyLevels)); err != nil {
		return fmt.Errorf("%s: buy_levels: %w", prefix, err)
	}
	if err := validateLadder(s.SellLevels); err != nil {
		return fmt.Errorf("%s: sell_levels: %w", prefix, err)
	}
	switch s.Kind {
	case KindKimpGrid:
	case KindTrendline:
		if s.BuyLine == nil {
			return errors.New(prefix + ": buy_line is required for TRENDLINE")
		}
		if err := validateTrendline(*s.BuyLine); err != nil {
			return fmt.Errorf("%s: buy_line: %w", prefix, err)
		}
		if err := validateTrendline(*s.SellLine); err != nil {
			return fmt.Errorf("%s: sell_line: %w", prefix, err)
		}
		if s.ReferencePegUSD <= 0 && s.ReferenceSymbol == "" {
			return errors.New(prefix + ": reference_symbol is required for TRENDLINE")
		}
	case "":
		return errors.New(prefix + ": kind is required")
	default:
		return fmt.Errorf("%s: unknown kind %q", prefix, s.Kind)
	}
	return nil
}

func validateLadder(rungs []Rung) error {
	prev := 0.0
	for i, r := range rungs {
		if r.Pct <= 0 || r.Pct > 100 {
			return fmt.Errorf("rung %d: pct %.2f must be in (0, 100]", i, r.Pct)
		}
		if r.Pct < prev {
			return fmt.Errorf("rung %d: cumulative pct %.2f decreases from %.2f", i, r.Pct, prev)
		}
		prev = r.Pct
	}
	return nil
}

// entryOrder returns a copy of the entry rungs from the highest threshold down,
// the order in which they are reached as the deviation falls.
func entryOrder(rungs []Rung) []Rung {
	sorted := append([]Rung(nil), rungs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})
	return sorted
}

func validateTrendline(line Trendline) error {
	if line.Start.Date.IsZero() || line.End.Date.IsZero() {
		return errors.New("start.date and end.date are required")
	}
	if line.ValidUntil.IsZero() {
		return errors.New("valid_until is required")
	}
	if line.Start.Price <= 0 || line.End.Price <= 0 {
		return errors.New("start.price and end.price must be > 0")
	}
	return nil
}

func lintStrategy(s StrategyConfig, now time.Time) []string {
	var warnings []string
	lintLine := func(label string, line *Trendline) {
		if line == nil {
			return
		}
		if !line.End.Date.After(line.Start.Date.Time) {
			warnings = append(warnings, fmt.Sprintf("strategy %s: %s end date is not after start date, line is flat at %.4f", s.Name, label, line.Start.Price))
		}
		if !line.ValidUntil.IsZero() && !now.Before(line.ValidUntil.Time) {
			warnings = append(warnings, fmt.Sprintf("strategy %s: %s expired at %s", s.Name, label, line.ValidUntil.Format("2006-01-02")))
		}
	}
	lintLine("buy_line", s.BuyLine)
	lintLine("sell_line", s.SellLine)
	if n := len(s.SellLevels); n > 0 && s.SellLevels[n-1].Pct < 100 {
		warnings = append(warnings, fmt.Sprintf("strategy %s: sell ladder ends at %.2f%%, remainder is never sold by the ladder", s.Name, s.SellLevels[n-1].Pct))
	}
	if len(s.BuyLevels) == 0 {
		warnings = append(warnings, fmt.Sprintf("strategy %s: empty buy ladder never enters", s.Name))
	}
	return warnings
}
