package engine

import (
	"errors"
	"testing"

	"github.com/jackluo2012/PulseTrader/internal/indicator"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return testConfig() }

	tests := []struct {
		name       string
		mutate     func(*Config)
		wantOption string
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = dec("0") }, "initial_capital"},
		{"negative capital", func(c *Config) { c.InitialCapital = dec("-1") }, "initial_capital"},
		{"commission at one", func(c *Config) { c.CommissionRate = dec("1") }, "commission_rate"},
		{"negative commission", func(c *Config) { c.CommissionRate = dec("-0.001") }, "commission_rate"},
		{"slippage at one", func(c *Config) { c.SlippageRate = dec("1") }, "slippage_rate"},
		{"position size above one", func(c *Config) { c.MaxPositionSizePct = dec("1.01") }, "max_position_size_pct"},
		{"zero position size", func(c *Config) { c.MaxPositionSizePct = dec("0") }, "max_position_size_pct"},
		{"zero portfolio risk", func(c *Config) { c.MaxPortfolioRiskPct = dec("0") }, "max_portfolio_risk_pct"},
		{"var confidence at one", func(c *Config) { c.VaRConfidence = 1 }, "var_confidence"},
		{"var confidence at zero", func(c *Config) { c.VaRConfidence = 0 }, "var_confidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Option != tt.wantOption {
				t.Errorf("option = %q, want %q", cfgErr.Option, tt.wantOption)
			}
		})
	}
}

func TestConfig_Validate_AcceptsBoundaryValues(t *testing.T) {
	cfg := testConfig()
	cfg.CommissionRate = dec("0")
	cfg.SlippageRate = dec("0")
	cfg.MaxPositionSizePct = dec("1")
	cfg.MaxPortfolioRiskPct = dec("1")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate_DefaultsIndicatorParams(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Indicators != indicator.DefaultParams() {
		t.Errorf("indicator params = %+v, want defaults", cfg.Indicators)
	}

	cfg = testConfig()
	cfg.Indicators = indicator.Params{SMAFast: 3, SMASlow: 9, RSIWindow: 7, BBWindow: 10, BBK: 2, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Indicators.SMAFast != 3 {
		t.Errorf("explicit indicator params were overwritten: %+v", cfg.Indicators)
	}
}
