package engine

import (
	"context"
	"time"

	"github.com/jackluo2012/PulseTrader/internal/indicator"
	"github.com/jackluo2012/PulseTrader/types"
)

// BarSource supplies ordered bar streams for the feeds of a run.
type BarSource interface {
	GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error)
	GetBars(ctx context.Context, assetId int, symbol string, interval types.Interval, start, end time.Time) ([]types.Bar, error)
}

// BarContext is what a strategy may look at while one bar is processed: the
// bar history up to and including the current bar, and the indicator snapshot
// at the current index. Nothing later is ever exposed.
type BarContext struct {
	History    []types.Bar
	Indicators indicator.Values
}

type Strategy interface {
	Init(api StrategyAPI) error
	OnBar(bar types.Bar, barCtx BarContext) []types.Signal
}

type StrategyAPI interface {
	PortfolioView() types.PortfolioView
}
