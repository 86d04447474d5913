package engine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jackluo2012/PulseTrader/internal/risk"
	"github.com/jackluo2012/PulseTrader/pkg/logger"
	"github.com/jackluo2012/PulseTrader/types"
)

var InsufficientCapitalErr = errors.New("insufficient capital")
var InsufficientPositionErr = errors.New("insufficient position")

// broker is the execution simulator. It runs each pending order through the
// risk gate, applies slippage and commission, and either fills it against the
// ledger or rejects it. A rejected order leaves the ledger untouched and
// produces no trade.
type broker struct {
	commissionRate decimal.Decimal
	slippageRate   decimal.Decimal
	riskManager    *risk.Manager
	ledger         *portfolio
}

func newBroker(commissionRate, slippageRate decimal.Decimal, riskManager *risk.Manager, ledger *portfolio) *broker {
	return &broker{
		commissionRate: commissionRate,
		slippageRate:   slippageRate,
		riskManager:    riskManager,
		ledger:         ledger,
	}
}

// Execute processes orders strictly in the given sequence and returns them in
// terminal state. The caller supplies orders already ordered by signal
// timestamp and arrival, which keeps runs deterministic.
func (b *broker) Execute(orders []types.Order, curTime time.Time) []types.Order {
	out := make([]types.Order, 0, len(orders))

	for _, order := range orders {
		if err := b.riskManager.ValidateOrder(order, b.ledger.View(curTime), b.ledger.TotalValue()); err != nil {
			order.Reject(err.Error())
			logger.Debug("order rejected by risk gate",
				zap.String("symbol", order.Symbol),
				zap.String("side", string(order.Side)),
				zap.Error(err))
			out = append(out, order)
			continue
		}

		switch order.Side {
		case types.SideTypeBuy:
			b.fillBuy(&order, curTime)
		case types.SideTypeSell:
			b.fillSell(&order, curTime)
		default:
			order.Reject("unknown order side")
		}
		out = append(out, order)
	}
	return out
}

func (b *broker) fillBuy(order *types.Order, curTime time.Time) {
	fillPrice := order.LimitPrice.Mul(one.Add(b.slippageRate))
	commission := order.Quantity.Mul(fillPrice).Mul(b.commissionRate)
	totalCost := order.Quantity.Mul(fillPrice).Add(commission)

	if totalCost.GreaterThan(b.ledger.cash) {
		order.Reject(InsufficientCapitalErr.Error())
		return
	}

	trade := types.NewTrade(order.ID, order.Symbol, types.SideTypeBuy, order.Quantity, fillPrice, commission, curTime)
	if err := b.ledger.ApplyTrade(trade); err != nil {
		order.Reject(err.Error())
		return
	}
	order.Fill()
}

func (b *broker) fillSell(order *types.Order, curTime time.Time) {
	pos, ok := b.ledger.GetPosition(order.Symbol)
	if !ok || order.Quantity.GreaterThan(pos.Quantity) {
		order.Reject(InsufficientPositionErr.Error())
		return
	}

	fillPrice := order.LimitPrice.Mul(one.Sub(b.slippageRate))
	commission := order.Quantity.Mul(fillPrice).Mul(b.commissionRate)

	trade := types.NewTrade(order.ID, order.Symbol, types.SideTypeSell, order.Quantity, fillPrice, commission, curTime)
	if err := b.ledger.ApplyTrade(trade); err != nil {
		order.Reject(err.Error())
		return
	}
	order.Fill()
}
