package meanrev

import (
	talib "github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/internal/engine"
	"github.com/jackluo2012/PulseTrader/types"
)

const (
	oversold   = 30.0
	overbought = 70.0
)

// Strategy trades mean reversion: oversold RSI below the lower Bollinger
// band buys, overbought RSI above the upper band sells. Signal strength
// scales with how deep the RSI sits in its extreme zone.
type Strategy struct {
	api       engine.StrategyAPI
	rsiWindow int
	bbWindow  int
	bbK       float64
}

func New(rsiWindow, bbWindow int, bbK float64) *Strategy {
	return &Strategy{
		rsiWindow: rsiWindow,
		bbWindow:  bbWindow,
		bbK:       bbK,
	}
}

func (s *Strategy) Init(api engine.StrategyAPI) error {
	s.api = api
	return nil
}

func (s *Strategy) OnBar(bar types.Bar, barCtx engine.BarContext) []types.Signal {
	minBars := s.rsiWindow + 1
	if s.bbWindow > minBars {
		minBars = s.bbWindow
	}
	if len(barCtx.History) < minBars {
		return nil
	}

	closes := make([]float64, len(barCtx.History))
	for i, b := range barCtx.History {
		closes[i] = b.Close.InexactFloat64()
	}

	rsi := talib.Rsi(closes, s.rsiWindow)
	upper, _, lower := talib.BBands(closes, s.bbWindow, s.bbK, s.bbK, talib.SMA)

	last := len(closes) - 1
	curRSI := rsi[last]
	curClose := closes[last]

	switch {
	case curRSI < oversold && curClose < lower[last]:
		strength := decimal.NewFromFloat((oversold - curRSI) / oversold)
		return []types.Signal{types.NewSignal(
			bar.Symbol, types.SignalBuy, strength, bar.Close,
			"oversold below lower band", bar.Timestamp,
		)}
	case curRSI > overbought && curClose > upper[last]:
		strength := decimal.NewFromFloat((curRSI - overbought) / (100 - overbought))
		return []types.Signal{types.NewSignal(
			bar.Symbol, types.SignalSell, strength, bar.Close,
			"overbought above upper band", bar.Timestamp,
		)}
	}
	return nil
}
