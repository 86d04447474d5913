package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the full application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
	Report   ReportConfig   `yaml:"report"`
}

// StorageConfig selects and configures the bar source.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "clickhouse"
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BacktestConfig holds the run options.
type BacktestConfig struct {
	Symbols             []string `yaml:"symbols"`
	Interval            string   `yaml:"interval"`
	Start               string   `yaml:"start"` // 2006-01-02
	End                 string   `yaml:"end"`
	InitialCapital      string   `yaml:"initial_capital"`
	CommissionRate      string   `yaml:"commission_rate"`
	SlippageRate        string   `yaml:"slippage_rate"`
	MaxPositionSizePct  string   `yaml:"max_position_size_pct"`
	MaxPortfolioRiskPct string   `yaml:"max_portfolio_risk_pct"`
	VarConfidence       float64  `yaml:"var_confidence"`
}

// StrategyConfig selects the strategy and its windows.
type StrategyConfig struct {
	Name       string  `yaml:"name"` // "macross" or "meanrev"
	FastWindow int     `yaml:"fast_window"`
	SlowWindow int     `yaml:"slow_window"`
	RSIWindow  int     `yaml:"rsi_window"`
	BBWindow   int     `yaml:"bb_window"`
	BBK        float64 `yaml:"bb_k"`
}

type ReportConfig struct {
	Print      bool   `yaml:"print"`
	TradesPath string `yaml:"trades_path"`
	EquityPath string `yaml:"equity_path"`
}

// Load reads the YAML configuration at path. A .env file, when present, is
// loaded first so secrets can stay out of the YAML; PULSE_DB_URL overrides
// storage.url.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it is a local convenience.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if url := os.Getenv("PULSE_DB_URL"); url != "" {
		cfg.Storage.URL = url
	}
	if pass := os.Getenv("PULSE_DB_PASSWORD"); pass != "" {
		cfg.Storage.Password = pass
	}
	return &cfg, nil
}
