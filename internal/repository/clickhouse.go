package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

var chIntervalTag = map[types.Interval]string{
	types.OneMinute:     "1m",
	types.FiveMinutes:   "5m",
	types.ThirtyMinutes: "30m",
	types.Hour:          "1h",
	types.FourHours:     "4h",
	types.Day:           "1d",
	types.Week:          "1w",
}

const chGetBarsQuery = `
SELECT open_time_ms, open, high, low, close, volume
FROM %s.candles
WHERE symbol = ? AND interval = ? AND open_time_ms >= ? AND open_time_ms < ?
ORDER BY open_time_ms`

const chCountQuery = `
SELECT count() FROM %s.candles WHERE symbol = ? LIMIT 1`

// ClickHouse reads bars from a ClickHouse candle table keyed by symbol and
// interval tag. The table has no asset master, so GetAssetBySymbol only
// verifies the symbol has data.
type ClickHouse struct {
	conn     driver.Conn
	database string
}

type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewClickHouse(ctx context.Context, opts ClickHouseOptions) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &ClickHouse{conn: conn, database: opts.Database}, nil
}

func (db *ClickHouse) Close() error {
	return db.conn.Close()
}

func (db *ClickHouse) GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error) {
	var count uint64
	query := fmt.Sprintf(chCountQuery, db.database)
	if err := db.conn.QueryRow(ctx, query, symbol).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrAssetNotFound)
	}
	return &types.Asset{Symbol: symbol, Name: symbol}, nil
}

func (db *ClickHouse) GetBars(ctx context.Context, assetId int, symbol string, interval types.Interval, start, end time.Time) ([]types.Bar, error) {
	tag, ok := chIntervalTag[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}

	query := fmt.Sprintf(chGetBarsQuery, db.database)
	rows, err := db.conn.Query(ctx, query, symbol, tag, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var openTimeMs uint64
		var open, high, low, close, volume float64
		if err := rows.Scan(&openTimeMs, &open, &high, &low, &close, &volume); err != nil {
			return nil, err
		}
		bars = append(bars, types.Bar{
			AssetId:   assetId,
			Symbol:    symbol,
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(close),
			Volume:    decimal.NewFromFloat(volume),
			Interval:  interval,
			Timestamp: time.UnixMilli(int64(openTimeMs)).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}
