package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

var ErrPositionLimitExceeded = errors.New("order exceeds max position size")
var ErrExposureLimitExceeded = errors.New("order exceeds max portfolio exposure")
var ErrNoReturns = errors.New("value at risk needs a non-empty return series")

// Manager enforces portfolio-wide constraints on proposed orders. Validation
// reads portfolio state but never mutates it.
type Manager struct {
	maxPositionSizePct  decimal.Decimal
	maxPortfolioRiskPct decimal.Decimal
	varConfidence       float64
}

func NewManager(maxPositionSizePct, maxPortfolioRiskPct decimal.Decimal, varConfidence float64) *Manager {
	return &Manager{
		maxPositionSizePct:  maxPositionSizePct,
		maxPortfolioRiskPct: maxPortfolioRiskPct,
		varConfidence:       varConfidence,
	}
}

// PositionLimit returns the largest whole quantity a single position may hold
// at the given price: floor(totalCapital * maxPositionSizePct / price).
func (m *Manager) PositionLimit(totalCapital, price decimal.Decimal) decimal.Decimal {
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalCapital.Mul(m.maxPositionSizePct).Div(price).Floor()
}

// ValidateOrder accepts or rejects a proposed order against the position-size
// and aggregate-exposure limits. A nil return means the order may proceed to
// execution. Sells only shrink exposure and pass the gate unchecked; whether
// the holdings cover them is the execution simulator's call.
func (m *Manager) ValidateOrder(order types.Order, view types.PortfolioView, totalCapital decimal.Decimal) error {
	if order.Side == types.SideTypeSell {
		return nil
	}

	limit := m.PositionLimit(totalCapital, order.LimitPrice)
	if order.Quantity.GreaterThan(limit) {
		return fmt.Errorf("%w: quantity %s over limit %s", ErrPositionLimitExceeded, order.Quantity, limit)
	}

	if totalCapital.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: no capital", ErrExposureLimitExceeded)
	}

	exposure := order.Quantity.Mul(order.LimitPrice)
	for _, pos := range view.Positions {
		exposure = exposure.Add(pos.Quantity.Mul(pos.LastPrice).Abs())
	}
	if exposure.Div(totalCapital).GreaterThan(m.maxPortfolioRiskPct) {
		return fmt.Errorf("%w: exposure %s of capital %s", ErrExposureLimitExceeded, exposure, totalCapital)
	}
	return nil
}

// ValueAtRisk estimates historical-simulation VaR at the manager's configured
// confidence level.
func (m *Manager) ValueAtRisk(returns []float64) (float64, error) {
	return ValueAtRisk(returns, m.varConfidence)
}

// ValueAtRisk sorts the observed returns ascending and reads the quantile at
// floor((1-confidence)*n). The caller must supply at least one observation.
func ValueAtRisk(returns []float64, confidence float64) (float64, error) {
	if len(returns) == 0 {
		return 0, ErrNoReturns
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], nil
}
