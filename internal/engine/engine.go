package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jackluo2012/PulseTrader/internal/risk"
	"github.com/jackluo2012/PulseTrader/pkg/logger"
	"github.com/jackluo2012/PulseTrader/types"
)

// Engine wires a run together: bar source, strategy, risk gate, execution
// simulator and ledger.
type Engine struct {
	db              BarSource
	cfg             *Config
	reportingConfig *ReportingConfig
	backtester      *backtester
	ledger          *portfolio
	riskManager     *risk.Manager
}

func NewEngine(cfg *Config, feeds []*DataFeedConfig, strat Strategy, reporting *ReportingConfig, db BarSource) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reporting == nil {
		reporting = NewReportingConfig(true, "", "")
	}

	ledger := newPortfolio(cfg.InitialCapital)
	riskManager := risk.NewManager(cfg.MaxPositionSizePct, cfg.MaxPortfolioRiskPct, cfg.VaRConfidence)
	alloc := newAllocator(riskManager)
	brk := newBroker(cfg.CommissionRate, cfg.SlippageRate, riskManager, ledger)

	e := &Engine{
		db:              db,
		cfg:             cfg,
		reportingConfig: reporting,
		backtester:      newBacktester(feeds, cfg, strat, alloc, brk, ledger),
		ledger:          ledger,
		riskManager:     riskManager,
	}
	if err := strat.Init(e); err != nil {
		return nil, fmt.Errorf("init strategy: %w", err)
	}
	return e, nil
}

// Run loads any unloaded feeds, drives the timeline and reduces the ledger to
// a performance report. A cancelled run returns the context error; the ledger
// stays valid as of the last completed step and FinalizeReport can still be
// called on it.
func (e *Engine) Run(ctx context.Context) (*types.PerformanceReport, error) {
	if err := e.loadData(ctx); err != nil {
		return nil, err
	}

	logger.Info("backtest started",
		zap.Int("feeds", len(e.backtester.feeds)),
		zap.String("initial_capital", e.cfg.InitialCapital.String()))

	if err := e.backtester.run(ctx); err != nil {
		return nil, err
	}

	report := e.FinalizeReport()
	if e.reportingConfig.printReport {
		printReport(report)
	}
	if err := e.writeReportFiles(); err != nil {
		return nil, err
	}

	if vaR, err := e.riskManager.ValueAtRisk(periodicReturns(e.ledger.EquityCurve())); err == nil {
		logger.Info("historical value at risk",
			zap.Float64("var", vaR),
			zap.Float64("confidence", e.cfg.VaRConfidence))
	}

	logger.Info("backtest finished",
		zap.Int("trades", len(e.ledger.Trades())),
		zap.Int("orders", len(e.ledger.Orders())))
	return report, nil
}

// FinalizeReport reduces whatever the ledger currently holds. It is safe to
// call after a cancelled run.
func (e *Engine) FinalizeReport() *types.PerformanceReport {
	return generateReport(e.ledger)
}

// PortfolioView implements StrategyAPI.
func (e *Engine) PortfolioView() types.PortfolioView {
	return e.ledger.View(e.backtester.getCurrentTime())
}

// Trades exposes the append-only trade log for external reporting.
func (e *Engine) Trades() []types.Trade {
	return e.ledger.Trades()
}

// Orders exposes the full order log, rejected orders included.
func (e *Engine) Orders() []types.Order {
	return e.ledger.Orders()
}

// EquityCurve exposes the ordered equity snapshots.
func (e *Engine) EquityCurve() []types.EquitySnapshot {
	return e.ledger.EquityCurve()
}

func (e *Engine) loadData(ctx context.Context) error {
	for _, feed := range e.backtester.feeds {
		if len(feed.bars) > 0 {
			continue
		}
		if e.db == nil {
			return fmt.Errorf("feed %s has no bars and no bar source is configured", feed.symbol)
		}

		asset, err := e.db.GetAssetBySymbol(ctx, feed.symbol)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", feed.symbol, err)
		}
		bars, err := e.db.GetBars(ctx, asset.Id, feed.symbol, feed.interval, feed.start, feed.end)
		if err != nil {
			return fmt.Errorf("load bars for %s: %w", feed.symbol, err)
		}
		feed.bars = bars
		logger.Debug("feed loaded", zap.String("symbol", feed.symbol), zap.Int("bars", len(bars)))
	}
	return nil
}

func (e *Engine) writeReportFiles() error {
	if e.reportingConfig.tradesPath != "" {
		if err := writeTradesCSVFile(e.reportingConfig.tradesPath, e.ledger.Trades()); err != nil {
			return err
		}
	}
	if e.reportingConfig.equityPath != "" {
		if err := writeEquityCSVFile(e.reportingConfig.equityPath, e.ledger.EquityCurve()); err != nil {
			return err
		}
	}
	return nil
}
