// Package config loads and validates the run configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/ammbt/fees"
	"github.com/rustyeddy/ammbt/frictions"
	"github.com/rustyeddy/ammbt/sim"
	"github.com/rustyeddy/ammbt/strategies"
	"github.com/rustyeddy/ammbt/triggers"
)

// Config is the complete run configuration.
type Config struct {
	Run       RunConfig       `json:"run" yaml:"run"`
	Strategy  strategies.Spec `json:"strategy" yaml:"strategy"`
	Triggers  TriggerConfig   `json:"triggers" yaml:"triggers"`
	Fees      fees.Config     `json:"fees" yaml:"fees"`
	Frictions frictions.Model `json:"frictions" yaml:"frictions"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

// RunConfig names the dataset and starting capital.
type RunConfig struct {
	BarsFile string `json:"bars_file" yaml:"bars_file"`
	// PoolFile enables exact-mode fee accrual when set.
	PoolFile string `json:"pool_file,omitempty" yaml:"pool_file,omitempty"`
	// Interval is the bar interval, e.g. "1h".
	Interval string `json:"interval" yaml:"interval"`
	// GapToleranceBars is how many missing bars a gap may span.
	GapToleranceBars int     `json:"gap_tolerance_bars,omitempty" yaml:"gap_tolerance_bars,omitempty"`
	InitialCash      float64 `json:"initial_cash" yaml:"initial_cash"`
	// BaselineRebalanceBars is the 50/50 benchmark rebalance cadence.
	BaselineRebalanceBars int `json:"baseline_rebalance_bars,omitempty" yaml:"baseline_rebalance_bars,omitempty"`
	// FromBar and ToBar slice the dataset by index, [FromBar, ToBar).
	// Zero ToBar means the end of the series.
	FromBar int `json:"from_bar,omitempty" yaml:"from_bar,omitempty"`
	ToBar   int `json:"to_bar,omitempty" yaml:"to_bar,omitempty"`
	// PeriodsPerYear overrides the annualization factor derived from
	// the interval. Zero derives it (8760 for hourly bars).
	PeriodsPerYear float64 `json:"periods_per_year,omitempty" yaml:"periods_per_year,omitempty"`
}

// TriggerConfig is the file form of triggers.Config: durations are
// strings like "6h" or "45m".
type TriggerConfig struct {
	CenterDeviationBps float64 `json:"center_deviation_bps,omitempty" yaml:"center_deviation_bps,omitempty"`
	InactivityBars     int     `json:"inactivity_bars,omitempty" yaml:"inactivity_bars,omitempty"`
	DriftBps           float64 `json:"drift_bps,omitempty" yaml:"drift_bps,omitempty"`
	OneSidedExit       bool    `json:"one_sided_exit,omitempty" yaml:"one_sided_exit,omitempty"`
	Every              string  `json:"every,omitempty" yaml:"every,omitempty"`
	Cooldown           string  `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
}

// Build converts to the engine's trigger configuration.
func (tc TriggerConfig) Build() (triggers.Config, error) {
	out := triggers.Config{
		CenterDeviationBps: tc.CenterDeviationBps,
		InactivityBars:     tc.InactivityBars,
		DriftBps:           tc.DriftBps,
		OneSidedExit:       tc.OneSidedExit,
	}
	var err error
	if tc.Every != "" {
		if out.Every, err = time.ParseDuration(tc.Every); err != nil {
			return out, fmt.Errorf("triggers.every: %w", err)
		}
	}
	if tc.Cooldown != "" {
		if out.Cooldown, err = time.ParseDuration(tc.Cooldown); err != nil {
			return out, fmt.Errorf("triggers.cooldown: %w", err)
		}
	}
	return out, out.Validate()
}

// JournalConfig selects where results are persisted.
type JournalConfig struct {
	// Type is "csv", "sqlite" or "" for no journaling.
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile reads a YAML or JSON configuration file.
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

// SaveToFile writes the configuration, YAML for .yaml/.yml, JSON otherwise.
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

// ParseInterval parses the bar interval.
func (rc RunConfig) ParseInterval() (time.Duration, error) {
	if rc.Interval == "" {
		return time.Hour, nil
	}
	return time.ParseDuration(rc.Interval)
}

// Validate checks the whole configuration. Strategy parameters are
// validated by constructing the strategy.
func (c *Config) Validate() error {
	if c.Run.BarsFile == "" {
		return fmt.Errorf("run.bars_file is required")
	}
	if c.Run.InitialCash <= 0 {
		return fmt.Errorf("run.initial_cash must be positive")
	}
	if c.Run.GapToleranceBars < 0 {
		return fmt.Errorf("run.gap_tolerance_bars must not be negative")
	}
	if c.Run.FromBar < 0 || c.Run.ToBar < 0 {
		return fmt.Errorf("run.from_bar and run.to_bar must not be negative")
	}
	if c.Run.ToBar > 0 && c.Run.FromBar >= c.Run.ToBar {
		return fmt.Errorf("run.from_bar %d must be before run.to_bar %d", c.Run.FromBar, c.Run.ToBar)
	}
	if c.Run.PeriodsPerYear < 0 {
		return fmt.Errorf("run.periods_per_year must not be negative")
	}
	if _, err := c.Run.ParseInterval(); err != nil {
		return fmt.Errorf("run.interval: %w", err)
	}
	if _, err := strategies.New(c.Strategy); err != nil {
		return err
	}
	if _, err := c.Triggers.Build(); err != nil {
		return err
	}
	if err := c.Fees.Validate(); err != nil {
		return err
	}
	if err := c.Frictions.Validate(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "csv", "sqlite":
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir required for CSV journaling")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for SQLite journaling")
	}
	return nil
}

// SimConfig assembles the engine configuration.
func (c *Config) SimConfig() (sim.Config, error) {
	trig, err := c.Triggers.Build()
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		InitialCash:           c.Run.InitialCash,
		Fees:                  c.Fees,
		Frictions:             c.Frictions,
		Triggers:              trig,
		BaselineRebalanceBars: c.Run.BaselineRebalanceBars,
		PeriodsPerYear:        c.Run.PeriodsPerYear,
	}, nil
}

// Default returns a runnable starting configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			BarsFile:    "./data/ethusdc_1h.csv",
			Interval:    "1h",
			InitialCash: 10000,
		},
		Strategy: strategies.Spec{
			Name:     "bollinger",
			Lookback: 20,
			K:        2,
		},
		Triggers: TriggerConfig{
			DriftBps: 100,
			Cooldown: "6h",
		},
		Fees: fees.Config{
			FeeTierBps:     30,
			Mode:           fees.ModeProxy,
			LiquidityShare: 0.001,
		},
		Frictions: frictions.Model{
			SwapFeeBps:  30,
			SlippageBps: 10,
			GasCost:     2,
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./results",
		},
	}
}
