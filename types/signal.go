package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Signal is a strategy recommendation for one symbol. Strength is in [0,1] and
// scales the allocator's position size; Price is the reference price the
// strategy observed when it generated the signal.
type Signal struct {
	Symbol    string
	Kind      SignalKind
	Strength  decimal.Decimal
	Price     decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

func NewSignal(
	symbol string,
	kind SignalKind,
	strength decimal.Decimal,
	price decimal.Decimal,
	reason string,
	createdAt time.Time,
) Signal {
	return Signal{
		Symbol:    symbol,
		Kind:      kind,
		Strength:  strength,
		Price:     price,
		Reason:    reason,
		CreatedAt: createdAt,
	}
}
