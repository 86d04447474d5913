package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

// scriptedStrategy buys with full strength on one bar index and sells on
// another, so a run's trades are known in advance.
type scriptedStrategy struct {
	buyOn  int
	sellOn int
}

func (s *scriptedStrategy) Init(api StrategyAPI) error { return nil }

func (s *scriptedStrategy) OnBar(bar types.Bar, barCtx BarContext) []types.Signal {
	switch len(barCtx.History) {
	case s.buyOn:
		return []types.Signal{types.NewSignal(bar.Symbol, types.SignalBuy, one, bar.Close, "buy step", bar.Timestamp)}
	case s.sellOn:
		return []types.Signal{types.NewSignal(bar.Symbol, types.SignalSell, one, bar.Close, "sell step", bar.Timestamp)}
	}
	return nil
}

type holdStrategy struct{}

func (holdStrategy) Init(api StrategyAPI) error { return nil }

func (holdStrategy) OnBar(types.Bar, BarContext) []types.Signal { return nil }

func testConfig() *Config {
	return &Config{
		InitialCapital:      dec("10000"),
		CommissionRate:      dec("0.001"),
		SlippageRate:        dec("0.001"),
		MaxPositionSizePct:  dec("0.2"),
		MaxPortfolioRiskPct: dec("0.8"),
		VaRConfidence:       0.95,
	}
}

func dailyBars(symbol string, startDay int, closes ...string) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		price := dec(c)
		bars[i] = types.Bar{
			Symbol:    symbol,
			Open:      price,
			Close:     price,
			High:      price,
			Low:       price,
			Volume:    dec("1000"),
			Interval:  types.Day,
			Timestamp: base.AddDate(0, 0, startDay+i),
		}
	}
	return bars
}

func runOnce(t *testing.T, feeds []*DataFeedConfig, strat Strategy) *Engine {
	t.Helper()
	eng, err := NewEngine(testConfig(), feeds, strat, NewReportingConfig(false, "", ""), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.backtester.progress = false
	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return eng
}

func TestEngine_IdenticalRunsProduceIdenticalResults(t *testing.T) {
	build := func() *Engine {
		feeds := []*DataFeedConfig{
			NewPreloadedFeed("AAPL", dailyBars("AAPL", 0, "10", "10.5", "11", "10.8", "11.2", "11.5", "11.3")),
			NewPreloadedFeed("MSFT", dailyBars("MSFT", 0, "20", "20.4", "19.8", "20.9", "21.3", "21.1", "21.6")),
		}
		return runOnce(t, feeds, &scriptedStrategy{buyOn: 2, sellOn: 5})
	}

	first := build()
	second := build()

	ta, tb := first.Trades(), second.Trades()
	if len(ta) == 0 {
		t.Fatal("scripted run produced no trades")
	}
	if len(ta) != len(tb) {
		t.Fatalf("trade counts differ: %d vs %d", len(ta), len(tb))
	}
	for i := range ta {
		if ta[i].Symbol != tb[i].Symbol ||
			ta[i].Side != tb[i].Side ||
			!ta[i].Quantity.Equal(tb[i].Quantity) ||
			!ta[i].FillPrice.Equal(tb[i].FillPrice) ||
			!ta[i].Commission.Equal(tb[i].Commission) ||
			!ta[i].Timestamp.Equal(tb[i].Timestamp) {
			t.Errorf("trade %d differs: %+v vs %+v", i, ta[i], tb[i])
		}
	}

	ea, eb := first.EquityCurve(), second.EquityCurve()
	if len(ea) != len(eb) {
		t.Fatalf("equity curve lengths differ: %d vs %d", len(ea), len(eb))
	}
	for i := range ea {
		if !ea[i].TotalValue.Equal(eb[i].TotalValue) || !ea[i].Timestamp.Equal(eb[i].Timestamp) {
			t.Errorf("equity point %d differs: %+v vs %+v", i, ea[i], eb[i])
		}
	}
}

func TestEngine_MergedTimelineCoversAllSymbols(t *testing.T) {
	feeds := []*DataFeedConfig{
		NewPreloadedFeed("AAPL", dailyBars("AAPL", 0, "10", "11", "12")),
		NewPreloadedFeed("MSFT", dailyBars("MSFT", 1, "20", "21", "22")),
	}
	eng := runOnce(t, feeds, holdStrategy{})

	// Days 0..3 give four distinct timestamps, one snapshot each.
	curve := eng.EquityCurve()
	if len(curve) != 4 {
		t.Fatalf("equity curve has %d points, want 4", len(curve))
	}
	for i := 1; i < len(curve); i++ {
		if !curve[i].Timestamp.After(curve[i-1].Timestamp) {
			t.Errorf("equity curve out of order at %d", i)
		}
	}
	for _, snap := range curve {
		if !snap.TotalValue.Equal(dec("10000")) {
			t.Errorf("idle run changed equity: %s", snap.TotalValue)
		}
	}
}

func TestEngine_RejectsOutOfOrderBars(t *testing.T) {
	bars := dailyBars("AAPL", 0, "10", "11", "12")
	bars[2].Timestamp = bars[1].Timestamp

	eng, err := NewEngine(testConfig(), []*DataFeedConfig{NewPreloadedFeed("AAPL", bars)}, holdStrategy{}, NewReportingConfig(false, "", ""), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.backtester.progress = false

	_, err = eng.Run(context.Background())
	if !errors.Is(err, InvalidBarSequenceErr) {
		t.Fatalf("err = %v, want InvalidBarSequenceErr", err)
	}
	if len(eng.EquityCurve()) != 0 {
		t.Errorf("aborted run produced equity points")
	}
}

func TestEngine_CancelledRunKeepsLedgerConsistent(t *testing.T) {
	feeds := []*DataFeedConfig{
		NewPreloadedFeed("AAPL", dailyBars("AAPL", 0, "10", "10.5", "11", "10.8", "11.2")),
	}
	eng, err := NewEngine(testConfig(), feeds, &scriptedStrategy{buyOn: 2, sellOn: 4}, NewReportingConfig(false, "", ""), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.backtester.progress = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	// Cancellation lands between steps, so snapshots and trades stay paired
	// and the partial ledger still reduces to a report.
	if len(eng.EquityCurve()) != 0 || len(eng.Trades()) != 0 {
		t.Errorf("pre-cancelled run touched the ledger")
	}
	report := eng.FinalizeReport()
	if report.TradeCount != 0 || !report.TotalReturn.Equal(decimal.Zero) {
		t.Errorf("report on empty ledger = %+v", report)
	}
}

func TestEngine_MissingFeedNeedsBarSource(t *testing.T) {
	feeds := []*DataFeedConfig{
		NewDataFeedConfig("AAPL", types.Day, time.UnixMilli(0), time.UnixMilli(0).AddDate(0, 1, 0)),
	}
	eng, err := NewEngine(testConfig(), feeds, holdStrategy{}, NewReportingConfig(false, "", ""), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.backtester.progress = false

	if _, err := eng.Run(context.Background()); err == nil {
		t.Fatal("expected an error for an empty feed with no bar source")
	}
}
