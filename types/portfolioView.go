package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioView is a read-only copy of the ledger state. Components outside
// the ledger never receive mutable aliases to positions.
type PortfolioView struct {
	Cash      decimal.Decimal
	Positions map[string]PositionView
	Time      time.Time
}

type PositionView struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

// TotalValue is cash plus positions marked at their last seen prices.
func (v PortfolioView) TotalValue() decimal.Decimal {
	value := v.Cash
	for _, pos := range v.Positions {
		value = value.Add(pos.Quantity.Mul(pos.LastPrice))
	}
	return value
}
