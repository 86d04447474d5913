package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jackluo2012/PulseTrader/internal/config"
	"github.com/jackluo2012/PulseTrader/internal/engine"
	"github.com/jackluo2012/PulseTrader/internal/indicator"
	"github.com/jackluo2012/PulseTrader/internal/repository"
	"github.com/jackluo2012/PulseTrader/pkg/logger"
	"github.com/jackluo2012/PulseTrader/strategies/macross"
	"github.com/jackluo2012/PulseTrader/strategies/meanrev"
	"github.com/jackluo2012/PulseTrader/types"
)

func main() {
	logger.Init()
	defer logger.GetLogger().Sync()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg, err := buildRunConfig(cfg)
	if err != nil {
		logger.Fatal("invalid backtest configuration", zap.Error(err))
	}

	feeds, err := buildFeeds(cfg.Backtest)
	if err != nil {
		logger.Fatal("invalid feed configuration", zap.Error(err))
	}

	strat, err := buildStrategy(cfg.Strategy)
	if err != nil {
		logger.Fatal("invalid strategy configuration", zap.Error(err))
	}

	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("connect bar source", zap.Error(err))
	}
	defer closeStore()

	reporting := engine.NewReportingConfig(cfg.Report.Print, cfg.Report.TradesPath, cfg.Report.EquityPath)

	eng, err := engine.NewEngine(runCfg, feeds, strat, reporting, store)
	if err != nil {
		logger.Fatal("build engine", zap.Error(err))
	}

	if _, err := eng.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("run cancelled, report reflects the last completed bar", zap.Error(err))
			eng.FinalizeReport()
			return
		}
		logger.Fatal("run failed", zap.Error(err))
	}
}

func buildRunConfig(cfg *config.Config) (*engine.Config, error) {
	initialCapital, err := parseDecimal("initial_capital", cfg.Backtest.InitialCapital)
	if err != nil {
		return nil, err
	}
	commissionRate, err := parseDecimal("commission_rate", cfg.Backtest.CommissionRate)
	if err != nil {
		return nil, err
	}
	slippageRate, err := parseDecimal("slippage_rate", cfg.Backtest.SlippageRate)
	if err != nil {
		return nil, err
	}
	maxPositionPct, err := parseDecimal("max_position_size_pct", cfg.Backtest.MaxPositionSizePct)
	if err != nil {
		return nil, err
	}
	maxRiskPct, err := parseDecimal("max_portfolio_risk_pct", cfg.Backtest.MaxPortfolioRiskPct)
	if err != nil {
		return nil, err
	}

	params := indicator.DefaultParams()
	if cfg.Strategy.FastWindow > 0 {
		params.SMAFast = cfg.Strategy.FastWindow
	}
	if cfg.Strategy.SlowWindow > 0 {
		params.SMASlow = cfg.Strategy.SlowWindow
	}
	if cfg.Strategy.RSIWindow > 0 {
		params.RSIWindow = cfg.Strategy.RSIWindow
	}
	if cfg.Strategy.BBWindow > 0 {
		params.BBWindow = cfg.Strategy.BBWindow
	}
	if cfg.Strategy.BBK > 0 {
		params.BBK = cfg.Strategy.BBK
	}

	return &engine.Config{
		InitialCapital:      initialCapital,
		CommissionRate:      commissionRate,
		SlippageRate:        slippageRate,
		MaxPositionSizePct:  maxPositionPct,
		MaxPortfolioRiskPct: maxRiskPct,
		VaRConfidence:       cfg.Backtest.VarConfidence,
		Indicators:          params,
	}, nil
}

func buildFeeds(cfg config.BacktestConfig) ([]*engine.DataFeedConfig, error) {
	interval, ok := types.ConvertInterval[cfg.Interval]
	if !ok {
		return nil, fmt.Errorf("unknown interval %q", cfg.Interval)
	}
	start, err := time.Parse("2006-01-02", cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.End)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	feeds := make([]*engine.DataFeedConfig, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		feeds = append(feeds, engine.NewDataFeedConfig(symbol, interval, start, end))
	}
	return feeds, nil
}

func buildStrategy(cfg config.StrategyConfig) (engine.Strategy, error) {
	switch cfg.Name {
	case "", "macross":
		return macross.New(), nil
	case "meanrev":
		rsiWindow := cfg.RSIWindow
		if rsiWindow == 0 {
			rsiWindow = 14
		}
		bbWindow := cfg.BBWindow
		if bbWindow == 0 {
			bbWindow = 20
		}
		bbK := cfg.BBK
		if bbK == 0 {
			bbK = 2.0
		}
		return meanrev.New(rsiWindow, bbWindow, bbK), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
	}
}

func buildStore(ctx context.Context, cfg config.StorageConfig) (engine.BarSource, func(), error) {
	switch cfg.Driver {
	case "postgres":
		db, err := repository.NewPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case "clickhouse":
		db, err := repository.NewClickHouse(ctx, repository.ClickHouseOptions{
			Addr:     cfg.Addr,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func parseDecimal(option, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("option %s: %w", option, err)
	}
	return d, nil
}
