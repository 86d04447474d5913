package types

type Side string

type OrderType string

type OrderStatus string

const (
	OrderPending  OrderStatus = "ORDER_PENDING"
	OrderFilled   OrderStatus = "ORDER_FILLED"
	OrderRejected OrderStatus = "ORDER_REJECTED"

	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)
