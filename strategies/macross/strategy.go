package macross

import (
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/internal/engine"
	"github.com/jackluo2012/PulseTrader/internal/indicator"
	"github.com/jackluo2012/PulseTrader/types"
)

var one = decimal.NewFromInt(1)

// Strategy trades the fast/slow SMA cross: a golden cross buys, a death
// cross sells. While either average is still undefined it emits nothing.
type Strategy struct {
	api      engine.StrategyAPI
	prevFast map[string]float64
	prevSlow map[string]float64
}

func New() *Strategy {
	return &Strategy{
		prevFast: make(map[string]float64),
		prevSlow: make(map[string]float64),
	}
}

func (s *Strategy) Init(api engine.StrategyAPI) error {
	s.api = api
	return nil
}

func (s *Strategy) OnBar(bar types.Bar, barCtx engine.BarContext) []types.Signal {
	fast := barCtx.Indicators.SMAFast
	slow := barCtx.Indicators.SMASlow

	prevFast, hadPrev := s.prevFast[bar.Symbol]
	prevSlow := s.prevSlow[bar.Symbol]
	s.prevFast[bar.Symbol] = fast
	s.prevSlow[bar.Symbol] = slow

	if !indicator.IsDefined(fast) || !indicator.IsDefined(slow) {
		return nil
	}
	if !hadPrev || !indicator.IsDefined(prevFast) || !indicator.IsDefined(prevSlow) {
		return nil
	}

	switch {
	case prevFast <= prevSlow && fast > slow:
		return []types.Signal{types.NewSignal(
			bar.Symbol, types.SignalBuy, one, bar.Close,
			"golden cross: fast SMA crossed above slow SMA", bar.Timestamp,
		)}
	case prevFast >= prevSlow && fast < slow:
		return []types.Signal{types.NewSignal(
			bar.Symbol, types.SignalSell, one, bar.Close,
			"death cross: fast SMA crossed below slow SMA", bar.Timestamp,
		)}
	}
	return nil
}
