package engine

import (
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/internal/risk"
	"github.com/jackluo2012/PulseTrader/types"
)

// allocator turns signals into candidate orders. Buy size is the risk
// manager's position limit scaled by signal strength; sell size is the held
// quantity scaled by strength. Signal order is preserved so the run stays
// deterministic.
type allocator struct {
	riskManager *risk.Manager
}

func newAllocator(riskManager *risk.Manager) *allocator {
	return &allocator{riskManager: riskManager}
}

func (a *allocator) Allocate(signals []types.Signal, view types.PortfolioView) []types.Order {
	if len(signals) == 0 {
		return nil
	}

	totalCapital := view.TotalValue()
	orders := make([]types.Order, 0, len(signals))

	for _, sig := range signals {
		strength := clampStrength(sig.Strength)
		if strength.IsZero() {
			continue
		}

		switch sig.Kind {
		case types.SignalBuy:
			limit := a.riskManager.PositionLimit(totalCapital, sig.Price)
			qty := limit.Mul(strength).Floor()
			if qty.LessThanOrEqual(decimal.Zero) {
				continue
			}
			orders = append(orders, types.NewOrder(
				sig.Symbol, types.SideTypeBuy, qty,
				types.TypeMarket, sig.Price, sig.Reason, sig.CreatedAt,
			))

		case types.SignalSell:
			pos, ok := view.Positions[sig.Symbol]
			if !ok || !pos.Quantity.IsPositive() {
				continue
			}
			qty := pos.Quantity.Mul(strength).Floor()
			if qty.LessThanOrEqual(decimal.Zero) {
				continue
			}
			orders = append(orders, types.NewOrder(
				sig.Symbol, types.SideTypeSell, qty,
				types.TypeMarket, sig.Price, sig.Reason, sig.CreatedAt,
			))
		}
	}
	return orders
}

func clampStrength(s decimal.Decimal) decimal.Decimal {
	if s.IsNegative() {
		return decimal.Zero
	}
	if s.GreaterThan(one) {
		return one
	}
	return s
}
