package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an append-only log entry for one filled order. Every filled order
// has exactly one trade; rejected orders have none.
type Trade struct {
	OrderID    string
	Symbol     string
	Side       Side
	Quantity   decimal.Decimal
	FillPrice  decimal.Decimal
	Commission decimal.Decimal
	Timestamp  time.Time
}

func NewTrade(
	orderID string,
	symbol string,
	side Side,
	quantity decimal.Decimal,
	fillPrice decimal.Decimal,
	commission decimal.Decimal,
	timestamp time.Time,
) Trade {
	return Trade{
		OrderID:    orderID,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		FillPrice:  fillPrice,
		Commission: commission,
		Timestamp:  timestamp,
	}
}
