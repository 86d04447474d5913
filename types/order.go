package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a candidate fill produced from an approved signal. Its status moves
// Pending -> Filled or Pending -> Rejected and is immutable afterwards.
type Order struct {
	ID           string
	Symbol       string
	Side         Side
	Quantity     decimal.Decimal
	OrderType    OrderType
	LimitPrice   decimal.Decimal
	Status       OrderStatus
	RejectReason string
	SignalReason string
	CreatedAt    time.Time
}

func NewOrder(
	symbol string,
	side Side,
	quantity decimal.Decimal,
	orderType OrderType,
	limitPrice decimal.Decimal,
	signalReason string,
	createdAt time.Time,
) Order {
	return Order{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Side:         side,
		Quantity:     quantity,
		OrderType:    orderType,
		LimitPrice:   limitPrice,
		Status:       OrderPending,
		SignalReason: signalReason,
		CreatedAt:    createdAt,
	}
}

// Fill marks a pending order as filled. Terminal states never change.
func (o *Order) Fill() {
	if o.Status == OrderPending {
		o.Status = OrderFilled
	}
}

// Reject marks a pending order as rejected with a reason.
func (o *Order) Reject(reason string) {
	if o.Status == OrderPending {
		o.Status = OrderRejected
		o.RejectReason = reason
	}
}
