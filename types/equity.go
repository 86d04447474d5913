package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquitySnapshot is one point on the equity curve: cash plus positions marked
// to market at the close of the bar being processed.
type EquitySnapshot struct {
	Timestamp     time.Time
	Cash          decimal.Decimal
	PositionValue decimal.Decimal
	TotalValue    decimal.Decimal
}
