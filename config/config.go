// Package config loads and validates process configuration. Schema
// problems are fatal at startup: a run never starts from a partial or
// defaulted-away configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quantfold/confluence/market"
	"github.com/quantfold/confluence/risk"
	"github.com/quantfold/confluence/strategy"
	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Live     LiveConfig     `json:"live" yaml:"live"`
	LogLevel string         `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// TradingConfig covers the instrument and the risk envelope.
type TradingConfig struct {
	Instrument       string   `json:"instrument" yaml:"instrument"`
	Timeframes       []string `json:"timeframes" yaml:"timeframes"`
	PrimaryTimeframe string   `json:"primary_timeframe" yaml:"primary_timeframe"`
	PointSize        float64  `json:"point_size" yaml:"point_size"`
	PipValue         float64  `json:"pip_value" yaml:"pip_value"`
	RiskPerTrade     float64  `json:"risk_per_trade" yaml:"risk_per_trade"`
	MinPositionSize  float64  `json:"min_position_size" yaml:"min_position_size"`
	MaxPositionSize  float64  `json:"max_position_size" yaml:"max_position_size"`
	MaxOpenPositions int      `json:"max_open_positions" yaml:"max_open_positions"`
	MaxDailyLoss     float64  `json:"max_daily_loss" yaml:"max_daily_loss"`
}

// LevelsConfig is one horizon's thresholds.
type LevelsConfig struct {
	Overbought float64 `json:"overbought" yaml:"overbought"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
}

// ThresholdsConfig groups the per-horizon thresholds.
type ThresholdsConfig struct {
	Short  LevelsConfig `json:"short" yaml:"short"`
	Medium LevelsConfig `json:"medium" yaml:"medium"`
	Long   LevelsConfig `json:"long" yaml:"long"`
}

// StrategyConfig holds the oscillator horizons and trade geometry.
type StrategyConfig struct {
	Periods struct {
		Short  int `json:"short" yaml:"short"`
		Medium int `json:"medium" yaml:"medium"`
		Long   int `json:"long" yaml:"long"`
	} `json:"periods" yaml:"periods"`
	Levels          ThresholdsConfig            `json:"levels" yaml:"levels"`
	TimeframeLevels map[string]ThresholdsConfig `json:"timeframe_levels,omitempty" yaml:"timeframe_levels,omitempty"`
	StopLossPips    float64                     `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TakeProfitPips  float64                     `json:"take_profit_pips" yaml:"take_profit_pips"`
}

// BacktestConfig holds simulation parameters.
type BacktestConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	DataDir        string  `json:"data_dir" yaml:"data_dir"`
}

// JournalConfig selects the persistence sink.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile  string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	SummaryFile string `json:"summary_file,omitempty" yaml:"summary_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LiveConfig holds live regime parameters.
type LiveConfig struct {
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"` // e.g. "60s"
}

// PollInterval parses Live.Interval, defaulting to one minute.
func (l LiveConfig) PollInterval() (time.Duration, error) {
	if l.Interval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(l.Interval)
}

// LoadFromFile loads configuration from a YAML or JSON file and
// validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format by
// extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration and returns the first violation.
func (c *Config) Validate() error {
	t := c.Trading
	if t.Instrument == "" {
		return fmt.Errorf("trading.instrument is required")
	}
	if len(t.Timeframes) == 0 {
		return fmt.Errorf("trading.timeframes is required")
	}
	for _, tf := range t.Timeframes {
		if _, err := market.ParseTimeframe(tf); err != nil {
			return fmt.Errorf("trading.timeframes: %w", err)
		}
	}
	if t.PrimaryTimeframe == "" {
		return fmt.Errorf("trading.primary_timeframe is required")
	}
	if _, err := market.ParseTimeframe(t.PrimaryTimeframe); err != nil {
		return fmt.Errorf("trading.primary_timeframe: %w", err)
	}
	if t.PointSize <= 0 {
		return fmt.Errorf("trading.point_size must be positive")
	}
	if t.PipValue <= 0 {
		return fmt.Errorf("trading.pip_value must be positive")
	}
	if t.RiskPerTrade <= 0 || t.RiskPerTrade > 1 {
		return fmt.Errorf("trading.risk_per_trade must be in (0, 1]")
	}
	if t.MinPositionSize <= 0 {
		return fmt.Errorf("trading.min_position_size must be positive")
	}
	if t.MaxPositionSize < t.MinPositionSize {
		return fmt.Errorf("trading.max_position_size must be >= min_position_size")
	}
	if t.MaxOpenPositions <= 0 {
		return fmt.Errorf("trading.max_open_positions must be positive")
	}
	if t.MaxDailyLoss <= 0 {
		return fmt.Errorf("trading.max_daily_loss must be positive")
	}

	s := c.Strategy
	if s.Periods.Short <= 0 || s.Periods.Medium <= 0 || s.Periods.Long <= 0 {
		return fmt.Errorf("strategy.periods must all be positive")
	}
	if s.StopLossPips <= 0 {
		return fmt.Errorf("strategy.stop_loss_pips must be positive")
	}
	if s.TakeProfitPips <= 0 {
		return fmt.Errorf("strategy.take_profit_pips must be positive")
	}
	if err := validateThresholds("strategy.levels", s.Levels); err != nil {
		return err
	}
	for name, th := range s.TimeframeLevels {
		if _, err := market.ParseTimeframe(name); err != nil {
			return fmt.Errorf("strategy.timeframe_levels: %w", err)
		}
		if err := validateThresholds("strategy.timeframe_levels."+name, th); err != nil {
			return err
		}
	}

	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	if c.Backtest.DataDir == "" {
		return fmt.Errorf("backtest.data_dir is required")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.SummaryFile == "" {
			return fmt.Errorf("journal trades_file, equity_file and summary_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	if _, err := c.Live.PollInterval(); err != nil {
		return fmt.Errorf("live.interval: %w", err)
	}
	return nil
}

// validateThresholds rejects unset or out-of-range levels. An omitted
// levels block yields zero values, and zero thresholds would make every
// warmed-up reading look like confluence.
func validateThresholds(name string, t ThresholdsConfig) error {
	horizons := []struct {
		name   string
		levels LevelsConfig
	}{
		{"short", t.Short},
		{"medium", t.Medium},
		{"long", t.Long},
	}
	for _, h := range horizons {
		if h.levels.Overbought <= 0 || h.levels.Overbought >= 100 {
			return fmt.Errorf("%s.%s.overbought must be in (0, 100)", name, h.name)
		}
		if h.levels.Oversold <= 0 || h.levels.Oversold >= 100 {
			return fmt.Errorf("%s.%s.oversold must be in (0, 100)", name, h.name)
		}
		if h.levels.Oversold >= h.levels.Overbought {
			return fmt.Errorf("%s.%s.oversold must be below overbought", name, h.name)
		}
	}
	return nil
}

// Timeframes returns the watched timeframes. Call after Validate.
func (c *Config) Timeframes() []market.Timeframe {
	out := make([]market.Timeframe, 0, len(c.Trading.Timeframes))
	for _, name := range c.Trading.Timeframes {
		tf, err := market.ParseTimeframe(name)
		if err != nil {
			continue
		}
		out = append(out, tf)
	}
	return out
}

// Primary returns the primary timeframe. Call after Validate.
func (c *Config) Primary() market.Timeframe {
	tf, _ := market.ParseTimeframe(c.Trading.PrimaryTimeframe)
	return tf
}

// StrategyConfig builds the signal generator configuration.
func (c *Config) StrategyConfig() strategy.Config {
	cfg := strategy.Config{
		Timeframes: c.Timeframes(),
		Periods: strategy.Horizons{
			Short:  c.Strategy.Periods.Short,
			Medium: c.Strategy.Periods.Medium,
			Long:   c.Strategy.Periods.Long,
		},
		Levels:     thresholds(c.Strategy.Levels),
		StopPips:   c.Strategy.StopLossPips,
		TargetPips: c.Strategy.TakeProfitPips,
		PointSize:  c.Trading.PointSize,
	}
	if len(c.Strategy.TimeframeLevels) > 0 {
		cfg.TimeframeLevels = make(map[market.Timeframe]strategy.Thresholds)
		for name, th := range c.Strategy.TimeframeLevels {
			tf, err := market.ParseTimeframe(name)
			if err != nil {
				continue
			}
			cfg.TimeframeLevels[tf] = thresholds(th)
		}
	}
	return cfg
}

// RiskLimits builds the risk manager limits.
func (c *Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MaxOpenPositions: c.Trading.MaxOpenPositions,
		MaxDailyLoss:     c.Trading.MaxDailyLoss,
		MinPositionSize:  c.Trading.MinPositionSize,
		MaxPositionSize:  c.Trading.MaxPositionSize,
	}
}

func thresholds(t ThresholdsConfig) strategy.Thresholds {
	return strategy.Thresholds{
		Short:  strategy.Levels{Overbought: t.Short.Overbought, Oversold: t.Short.Oversold},
		Medium: strategy.Levels{Overbought: t.Medium.Overbought, Oversold: t.Medium.Oversold},
		Long:   strategy.Levels{Overbought: t.Long.Overbought, Oversold: t.Long.Oversold},
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	cfg := &Config{
		Trading: TradingConfig{
			Instrument:       "XAUUSD",
			Timeframes:       []string{"M5", "M15", "H1"},
			PrimaryTimeframe: "M1",
			PointSize:        0.1,
			PipValue:         1.0,
			RiskPerTrade:     0.01,
			MinPositionSize:  0.01,
			MaxPositionSize:  1.0,
			MaxOpenPositions: 3,
			MaxDailyLoss:     100,
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			DataDir:        "./data",
		},
		Journal: JournalConfig{
			Type:        "csv",
			TradesFile:  "./trades.csv",
			EquityFile:  "./equity.csv",
			SummaryFile: "./summary.csv",
		},
		Live:     LiveConfig{Interval: "60s"},
		LogLevel: "info",
	}
	cfg.Strategy.Periods.Short = 7
	cfg.Strategy.Periods.Medium = 14
	cfg.Strategy.Periods.Long = 21
	defaultLevels := LevelsConfig{Overbought: 70, Oversold: 30}
	cfg.Strategy.Levels = ThresholdsConfig{Short: defaultLevels, Medium: defaultLevels, Long: defaultLevels}
	cfg.Strategy.StopLossPips = 50
	cfg.Strategy.TakeProfitPips = 100
	return cfg
}
