package engine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

var UnknownTradeSideErr = errors.New("unknown trade side")
var InsufficientBalanceErr = errors.New("trade would drive cash balance negative")
var InsufficientHoldingsErr = errors.New("trade would sell more than the position holds")

// portfolio is the ledger: the sole owner of cash, positions and the
// append-only trade, order and equity logs. ApplyTrade is the only mutation
// entry point; everything else hands out copies.
type portfolio struct {
	cash           decimal.Decimal
	initialCapital decimal.Decimal
	positions      map[string]*position
	trades         []types.Trade
	orders         []types.Order
	equity         []types.EquitySnapshot
}

type position struct {
	symbol    string
	quantity  decimal.Decimal
	avgCost   decimal.Decimal
	lastPrice decimal.Decimal
}

func newPortfolio(initialCapital decimal.Decimal) *portfolio {
	return &portfolio{
		cash:           initialCapital,
		initialCapital: initialCapital,
		positions:      make(map[string]*position),
	}
}

// ApplyTrade moves cash and position state for one filled order and appends
// the trade. Called exactly once per filled order.
func (p *portfolio) ApplyTrade(t types.Trade) error {
	pos := p.positions[t.Symbol]
	if pos == nil {
		pos = &position{symbol: t.Symbol}
		p.positions[t.Symbol] = pos
	}

	switch t.Side {
	case types.SideTypeBuy:
		cost := t.Quantity.Mul(t.FillPrice).Add(t.Commission)
		newCash := p.cash.Sub(cost)
		if newCash.IsNegative() {
			return InsufficientBalanceErr
		}
		p.cash = newCash

		if pos.quantity.IsPositive() {
			pos.avgCost = weightedAvg(pos.avgCost, pos.quantity, t.FillPrice, t.Quantity)
		} else {
			pos.avgCost = t.FillPrice
		}
		pos.quantity = pos.quantity.Add(t.Quantity)

	case types.SideTypeSell:
		if t.Quantity.GreaterThan(pos.quantity) {
			return InsufficientHoldingsErr
		}
		p.cash = p.cash.Add(t.Quantity.Mul(t.FillPrice)).Sub(t.Commission)
		pos.quantity = pos.quantity.Sub(t.Quantity)
		if pos.quantity.IsZero() {
			pos.avgCost = decimal.Zero
		}

	default:
		return UnknownTradeSideErr
	}

	pos.lastPrice = t.FillPrice
	p.trades = append(p.trades, t)
	return nil
}

// Snapshot marks the book to market at the given closes and appends one
// equity point. Symbols without a bar this step keep their last seen price.
func (p *portfolio) Snapshot(ts time.Time, closes map[string]decimal.Decimal) types.EquitySnapshot {
	for symbol, close := range closes {
		if pos, ok := p.positions[symbol]; ok {
			pos.lastPrice = close
		}
	}

	positionValue := decimal.Zero
	for _, pos := range p.positions {
		positionValue = positionValue.Add(pos.quantity.Mul(pos.lastPrice))
	}

	snap := types.EquitySnapshot{
		Timestamp:     ts,
		Cash:          p.cash,
		PositionValue: positionValue,
		TotalValue:    p.cash.Add(positionValue),
	}
	p.equity = append(p.equity, snap)
	return snap
}

func (p *portfolio) logOrder(o types.Order) {
	p.orders = append(p.orders, o)
}

// TotalValue is cash plus positions at their last seen prices.
func (p *portfolio) TotalValue() decimal.Decimal {
	value := p.cash
	for _, pos := range p.positions {
		value = value.Add(pos.quantity.Mul(pos.lastPrice))
	}
	return value
}

func (p *portfolio) GetPosition(symbol string) (types.PositionView, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return types.PositionView{}, false
	}
	return types.PositionView{
		Symbol:    pos.symbol,
		Quantity:  pos.quantity,
		AvgCost:   pos.avgCost,
		LastPrice: pos.lastPrice,
	}, true
}

func (p *portfolio) View(ts time.Time) types.PortfolioView {
	view := types.PortfolioView{
		Cash:      p.cash,
		Positions: make(map[string]types.PositionView, len(p.positions)),
		Time:      ts,
	}
	for symbol, pos := range p.positions {
		view.Positions[symbol] = types.PositionView{
			Symbol:    pos.symbol,
			Quantity:  pos.quantity,
			AvgCost:   pos.avgCost,
			LastPrice: pos.lastPrice,
		}
	}
	return view
}

func (p *portfolio) Trades() []types.Trade {
	return p.trades
}

func (p *portfolio) Orders() []types.Order {
	return p.orders
}

func (p *portfolio) EquityCurve() []types.EquitySnapshot {
	return p.equity
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
