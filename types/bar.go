package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV observation for a symbol at a timestamp. Bars are produced
// by external data sources and never mutated by the engine.
type Bar struct {
	AssetId   int             `json:"id"`
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
