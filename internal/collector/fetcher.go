package collector

import "RibbonSentinel/internal/model"

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(symbol string, days int) ([]model.OHLCV, error)
	FetchHourlyBars(symbol string, hours int) ([]model.OHLCV, error)
	Name() string
}
