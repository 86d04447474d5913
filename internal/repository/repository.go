package repository

import (
	"errors"

	"github.com/jackluo2012/PulseTrader/types"
)

// Global error declarations.
var (
	ErrIntervalNotSupported = errors.New("interval not supported")
	ErrAssetNotFound        = errors.New("asset not found in datasource")
	ErrNoBars               = errors.New("no bars found in datasource")
)

var bucketToInterval = map[types.Interval]string{
	types.OneMinute:     "1 minute",
	types.FiveMinutes:   "5 minutes",
	types.ThirtyMinutes: "30 minutes",
	types.Hour:          "1 hour",
	types.FourHours:     "4 hours",
	types.Day:           "1 day",
	types.Week:          "1 week",
}
