package types

import "github.com/shopspring/decimal"

// PerformanceReport is the final reduction of a run. Computed once at
// finalization and immutable afterwards.
type PerformanceReport struct {
	TotalReturn      decimal.Decimal
	AnnualizedReturn decimal.Decimal
	SharpeRatio      decimal.Decimal
	MaxDrawdown      decimal.Decimal
	WinRate          decimal.Decimal
	TradeCount       int
}
