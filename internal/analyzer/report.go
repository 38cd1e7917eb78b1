package analyzer

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"RibbonSentinel/internal/model"
	"RibbonSentinel/internal/strategy"
)

// DateLayout is the layout of target dates.
const DateLayout = "2006-01-02"

const volumeHistoryLen = 3

var (
	// ErrNoData means no bar exists on or before the target date.
	ErrNoData = errors.New("no data on or before target date")
	// ErrNotComputed means the series has bars but no indicators.
	ErrNotComputed = errors.New("series indicators not computed")
	// ErrInvalidBar means the located bar carries non-finite values.
	ErrInvalidBar = errors.New("invalid bar values")
)

// Options configures the report preparer.
type Options struct {
	Signals strategy.SignalConfig
	Chart   ChartConfig
}

// DefaultOptions returns the plain crossover detector and default chart links.
func DefaultOptions() Options {
	return Options{Signals: strategy.DefaultSignalConfig(), Chart: DefaultChartConfig()}
}

// ParseDate parses a YYYY-MM-DD target date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Prepare builds the report record for ticker at the last bar dated on or
// before target. Failures come back as ErrNoData, ErrNotComputed or ErrInvalidBar.
func Prepare(rs model.RibbonSeries, ticker string, target time.Time, opts Options) (model.ReportRecord, error) {
	idx := Locate(rs, target)
	if idx < 0 {
		return model.ReportRecord{}, fmt.Errorf("%s at %s: %w", ticker, target.Format(DateLayout), ErrNoData)
	}
	if !rs.Computed {
		log.Printf("[WARN] report %s: %v", ticker, ErrNotComputed)
		return model.ReportRecord{}, fmt.Errorf("%s: %w", ticker, ErrNotComputed)
	}

	bar := rs.Bars[idx]
	if !finite(bar.Close) || !finite(bar.MidGreen) || bar.MidGreen == 0 {
		log.Printf("[WARN] report %s at %s: close=%v mid_green=%v", ticker, bar.Time.Format(DateLayout), bar.Close, bar.MidGreen)
		return model.ReportRecord{}, fmt.Errorf("%s: %w", ticker, ErrInvalidBar)
	}

	distance := DistanceFromBase(bar.Close, bar.MidGreen)
	buy, sell := strategy.Detect(rs, opts.Signals)
	chartSymbol, chartLink := opts.Chart.ChartLink(ticker)

	return model.ReportRecord{
		Ticker:        ticker,
		Date:          bar.Time,
		Price:         round(bar.Close, 2),
		Signal:        strategy.ResolveSignal(buy[idx], sell[idx]),
		Alignment:     ClassifyAlignment(bar.MidRed, bar.MidBlue, bar.MidGreen),
		RSI:           round(bar.RSI, 1),
		Momentum:      ClassifyMomentum(bar.RSI),
		Slope:         round(bar.ADXSlope, 2),
		SlopeClass:    ClassifySlope(bar.ADXSlope),
		Distance:      round(distance, 1),
		DistanceClass: ClassifyDistance(distance),
		VolumeHistory: volumeHistory(rs.Bars, idx),
		ChartSymbol:   chartSymbol,
		ChartLink:     chartLink,
	}, nil
}

// Locate returns the index of the last bar whose calendar date is on or
// before target's, or -1 when every bar is later.
func Locate(rs model.RibbonSeries, target time.Time) int {
	key := dateKey(target)
	return sort.Search(len(rs.Bars), func(i int) bool {
		return dateKey(rs.Bars[i].Time) > key
	}) - 1
}

// DistanceFromBase is the percentage distance of close from the green midpoint.
func DistanceFromBase(close, midGreen float64) float64 {
	return (close - midGreen) / midGreen * 100
}

// ClassifyAlignment is bullish only for strictly descending red > blue > green.
func ClassifyAlignment(midRed, midBlue, midGreen float64) model.Alignment {
	if midRed > midBlue && midBlue > midGreen {
		return model.AlignmentBullish
	}
	return model.AlignmentBuilding
}

// ClassifyMomentum bands RSI.
func ClassifyMomentum(rsi float64) model.MomentumClass {
	switch {
	case rsi > 75:
		return model.MomentumOverheated
	case rsi > 55:
		return model.MomentumStrong
	default:
		return model.MomentumNeutral
	}
}

// ClassifySlope bands the ADX slope.
func ClassifySlope(slope float64) model.SlopeClass {
	switch {
	case slope > 1.0:
		return model.SlopeExtreme
	case slope > 0.2:
		return model.SlopeBuilding
	default:
		return model.SlopeWeak
	}
}

// ClassifyDistance bands the distance from the green midpoint.
func ClassifyDistance(distance float64) model.DistanceClass {
	if distance < 15 {
		return model.DistanceNearBase
	}
	return model.DistanceDeviationRisk
}

// ClassifyVolume tags a volume/volume-MA ratio.
func ClassifyVolume(ratio float64) model.VolumeMarker {
	switch {
	case ratio > 2:
		return model.VolumeHigh
	case ratio > 1.2:
		return model.VolumeElevated
	default:
		return model.VolumeNormal
	}
}

// VolumeRatio is volume over its moving average; 1 when the average is zero or undefined.
func VolumeRatio(volume, volumeMA float64) float64 {
	if !(volumeMA > 0) || math.IsInf(volumeMA, 0) {
		return 1
	}
	return volume / volumeMA
}

func volumeHistory(bars []model.RibbonBar, idx int) []model.VolumeEntry {
	start := idx - (volumeHistoryLen - 1)
	if start < 0 {
		start = 0
	}
	out := make([]model.VolumeEntry, 0, idx-start+1)
	for i := start; i <= idx; i++ {
		b := bars[i]
		ratio := VolumeRatio(b.Volume, b.VolumeMA)
		out = append(out, model.VolumeEntry{
			Date:   b.Time,
			Volume: int64(b.Volume),
			Ratio:  round(ratio, 2),
			Marker: ClassifyVolume(ratio),
		})
	}
	return out
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func round(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
