package collector

import (
	"fmt"
	"time"

	"RibbonSentinel/internal/calculator"
	"RibbonSentinel/internal/model"
)

const (
	DefaultHistoryDays = 400
	DefaultHourlyBars  = 24 * 60
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price      float64
	DailyData  map[string][]model.OHLCV
	HourlyData map[string][]model.OHLCV
	Err        error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.DailyData[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, days, 24*time.Hour), nil
}

func (m *MockFetcher) FetchHourlyBars(symbol string, hours int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.HourlyData[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, hours, time.Hour), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().Truncate(step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches bars for a ticker and runs the indicator pipeline on them.
type Collector struct {
	Fetcher     Fetcher
	HistoryDays int
	HourlyBars  int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, historyDays, hourlyBars int) *Collector {
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	if hourlyBars <= 0 {
		hourlyBars = DefaultHourlyBars
	}
	return &Collector{Fetcher: fetcher, HistoryDays: historyDays, HourlyBars: hourlyBars}
}

// Collect fetches daily bars for ticker and computes ribbons and oscillators.
func (c *Collector) Collect(ticker string) (model.RibbonSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ticker, c.HistoryDays)
	if err != nil {
		return model.RibbonSeries{}, fmt.Errorf("fetch daily bars %s: %w", ticker, err)
	}
	return calculator.Calculate(ticker, bars), nil
}

// CollectWideBand fetches daily bars for ticker and computes the wide-band grid.
func (c *Collector) CollectWideBand(ticker string, cfg calculator.WideBandConfig) ([]model.WideBandBar, error) {
	bars, err := c.Fetcher.FetchDailyBars(ticker, c.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars %s: %w", ticker, err)
	}
	return calculator.WideBand(bars, cfg), nil
}

// CollectHourly fetches hourly bars for ticker and computes hour-matched relative volume.
func (c *Collector) CollectHourly(ticker string) ([]model.HourlyVolume, error) {
	bars, err := c.Fetcher.FetchHourlyBars(ticker, c.HourlyBars)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly bars %s: %w", ticker, err)
	}
	return calculator.RelativeVolume(bars, calculator.RelativeVolumeWindow), nil
}
