package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/internal/indicator"
	"github.com/jackluo2012/PulseTrader/types"
)

// ConfigError reports an out-of-range or missing configuration value. It is
// fatal at construction, before any bar is processed.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration option %q: %s", e.Option, e.Reason)
}

// Config holds the recognized run options.
type Config struct {
	InitialCapital      decimal.Decimal
	CommissionRate      decimal.Decimal
	SlippageRate        decimal.Decimal
	MaxPositionSizePct  decimal.Decimal
	MaxPortfolioRiskPct decimal.Decimal
	VaRConfidence       float64
	Indicators          indicator.Params
}

var one = decimal.NewFromInt(1)

func (c *Config) Validate() error {
	if c.InitialCapital.LessThanOrEqual(decimal.Zero) {
		return &ConfigError{"initial_capital", "must be positive"}
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThanOrEqual(one) {
		return &ConfigError{"commission_rate", "must be in [0,1)"}
	}
	if c.SlippageRate.IsNegative() || c.SlippageRate.GreaterThanOrEqual(one) {
		return &ConfigError{"slippage_rate", "must be in [0,1)"}
	}
	if c.MaxPositionSizePct.LessThanOrEqual(decimal.Zero) || c.MaxPositionSizePct.GreaterThan(one) {
		return &ConfigError{"max_position_size_pct", "must be in (0,1]"}
	}
	if c.MaxPortfolioRiskPct.LessThanOrEqual(decimal.Zero) || c.MaxPortfolioRiskPct.GreaterThan(one) {
		return &ConfigError{"max_portfolio_risk_pct", "must be in (0,1]"}
	}
	if c.VaRConfidence <= 0 || c.VaRConfidence >= 1 {
		return &ConfigError{"var_confidence", "must be in (0,1)"}
	}
	if c.Indicators == (indicator.Params{}) {
		c.Indicators = indicator.DefaultParams()
	}
	return nil
}

// DataFeedConfig describes one symbol's bar stream, either loaded from a bar
// source at run start or preloaded.
type DataFeedConfig struct {
	symbol   string
	interval types.Interval
	start    time.Time
	end      time.Time
	bars     []types.Bar
}

func NewDataFeedConfig(symbol string, interval types.Interval, start, end time.Time) *DataFeedConfig {
	return &DataFeedConfig{
		symbol:   symbol,
		interval: interval,
		start:    start,
		end:      end,
	}
}

// NewPreloadedFeed builds a feed from bars already in memory, bypassing the
// bar source.
func NewPreloadedFeed(symbol string, bars []types.Bar) *DataFeedConfig {
	return &DataFeedConfig{
		symbol: symbol,
		bars:   bars,
	}
}

type ReportingConfig struct {
	printReport bool
	tradesPath  string
	equityPath  string
}

func NewReportingConfig(printReport bool, tradesPath, equityPath string) *ReportingConfig {
	return &ReportingConfig{
		printReport: printReport,
		tradesPath:  tradesPath,
		equityPath:  equityPath,
	}
}
