package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

const getAssetQuery = `
SELECT id, ticker, name, type, created_at, modified_at
FROM assets
WHERE ticker = $1`

const getAggregatesQuery = `
SELECT time_bucket($1::interval, timestamp) AS bucket,
       first(open, timestamp)  AS open,
       max(high)               AS high,
       min(low)                AS low,
       last(close, timestamp)  AS close,
       sum(volume)             AS volume
FROM candles
WHERE asset_id = $2 AND timestamp >= $3 AND timestamp < $4
GROUP BY bucket
ORDER BY bucket`

// Postgres reads assets and bar aggregates from a timescale-style candle
// store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a pooled connection and verifies connectivity.
func NewPostgres(ctx context.Context, dbURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() {
	db.pool.Close()
}

func (db *Postgres) GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error) {
	var asset types.Asset
	err := db.pool.QueryRow(ctx, getAssetQuery, symbol).Scan(
		&asset.Id, &asset.Symbol, &asset.Name, &asset.Type, &asset.CreatedAt, &asset.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("symbol %s: %w", symbol, ErrAssetNotFound)
		}
		return nil, err
	}
	return &asset, nil
}

func (db *Postgres) GetBars(ctx context.Context, assetId int, symbol string, interval types.Interval, start, end time.Time) ([]types.Bar, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}

	rows, err := db.pool.Query(ctx, getAggregatesQuery, bucket, assetId, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var ts time.Time
		var open, high, low, close, volume decimal.Decimal
		if err := rows.Scan(&ts, &open, &high, &low, &close, &volume); err != nil {
			return nil, err
		}
		bars = append(bars, types.Bar{
			AssetId:   assetId,
			Symbol:    symbol,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			Interval:  interval,
			Timestamp: ts,
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
