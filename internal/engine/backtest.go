package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/internal/indicator"
	"github.com/jackluo2012/PulseTrader/types"
)

var InvalidBarSequenceErr = errors.New("bar timestamps must be strictly increasing per symbol")

// backtester drives one run: a single sequential timeline over the merged bar
// streams. Each step runs strategy, allocation, risk, execution and the
// equity snapshot for exactly one timestamp; the ledger is never touched from
// more than one place.
type backtester struct {
	feeds     []*DataFeedConfig
	cfg       *Config
	strategy  Strategy
	allocator *allocator
	broker    *broker
	ledger    *portfolio

	sets     map[string]*indicator.Set
	barIndex map[string]int
	curTime  time.Time
	progress bool
}

func newBacktester(feeds []*DataFeedConfig, cfg *Config, strat Strategy, alloc *allocator, broker *broker, ledger *portfolio) *backtester {
	barIndex := make(map[string]int)
	for _, feed := range feeds {
		barIndex[feed.symbol] = 0
	}
	return &backtester{
		feeds:     feeds,
		cfg:       cfg,
		strategy:  strat,
		allocator: alloc,
		broker:    broker,
		ledger:    ledger,
		barIndex:  barIndex,
		progress:  true,
	}
}

// run processes the merged timeline. Cancellation is only honored between
// steps, so an interrupted run always leaves the ledger consistent as of the
// last completed timestamp.
func (b *backtester) run(ctx context.Context) error {
	if err := b.validateFeeds(); err != nil {
		return err
	}
	b.computeIndicators()

	timeline := b.buildTimeline()
	var bar *progressbar.ProgressBar
	if b.progress {
		bar = initProgressBar(len(timeline))
	}

	for _, ts := range timeline {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b.step(ts)
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

func (b *backtester) step(ts time.Time) {
	b.curTime = ts

	var signals []types.Signal
	closes := make(map[string]decimal.Decimal)

	// Feeds are visited in declaration order so ties on the same timestamp
	// resolve the same way on every run.
	for _, feed := range b.feeds {
		i := b.barIndex[feed.symbol]
		if i >= len(feed.bars) || !feed.bars[i].Timestamp.Equal(ts) {
			continue
		}
		cur := feed.bars[i]
		b.barIndex[feed.symbol] = i + 1
		closes[feed.symbol] = cur.Close

		barCtx := BarContext{
			History:    feed.bars[:i+1],
			Indicators: b.sets[feed.symbol].At(i),
		}
		signals = append(signals, b.strategy.OnBar(cur, barCtx)...)
	}

	orders := b.allocator.Allocate(signals, b.ledger.View(ts))
	for _, order := range b.broker.Execute(orders, ts) {
		b.ledger.logOrder(order)
	}

	b.ledger.Snapshot(ts, closes)
}

// validateFeeds aborts the run before the first step when any stream violates
// the causality contract.
func (b *backtester) validateFeeds() error {
	for _, feed := range b.feeds {
		for i := 1; i < len(feed.bars); i++ {
			if !feed.bars[i].Timestamp.After(feed.bars[i-1].Timestamp) {
				return fmt.Errorf("%w: %s at %s", InvalidBarSequenceErr, feed.symbol, feed.bars[i].Timestamp)
			}
		}
	}
	return nil
}

// computeIndicators derives the per-symbol indicator sets in parallel and
// joins before the timeline starts. This is the only concurrency in a run.
func (b *backtester) computeIndicators() {
	closesBySymbol := make(map[string][]float64, len(b.feeds))
	for _, feed := range b.feeds {
		closes := make([]float64, len(feed.bars))
		for i, bar := range feed.bars {
			closes[i] = bar.Close.InexactFloat64()
		}
		closesBySymbol[feed.symbol] = closes
	}
	b.sets = indicator.ComputeAll(closesBySymbol, b.cfg.Indicators)
}

func (b *backtester) buildTimeline() []time.Time {
	seen := make(map[int64]time.Time)
	for _, feed := range b.feeds {
		for _, bar := range feed.bars {
			seen[bar.Timestamp.UnixNano()] = bar.Timestamp
		}
	}

	timeline := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		timeline = append(timeline, ts)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return timeline
}

func (b *backtester) getCurrentTime() time.Time {
	return b.curTime
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
