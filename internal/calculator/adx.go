package calculator

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"
)

var (
	// ErrInsufficientHistory is returned when a series is shorter than an indicator's lookback.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDegenerateInput is returned for misaligned, non-finite or inverted (high < low) input.
	ErrDegenerateInput = errors.New("degenerate input")
)

// ADXLookback is the index of the first defined ADX value for period.
func ADXLookback(period int) int {
	return 2*period - 1
}

// ADXSeries computes the average directional index. Entries before the
// lookback are zero, as are any non-finite outputs.
func ADXSeries(highs, lows, closes []float64, period int) ([]float64, error) {
	n := len(closes)
	if period <= 0 {
		return nil, fmt.Errorf("adx period %d: %w", period, ErrDegenerateInput)
	}
	if len(highs) != n || len(lows) != n {
		return nil, fmt.Errorf("adx columns %d/%d/%d: %w", len(highs), len(lows), n, ErrDegenerateInput)
	}
	if n < 2*period {
		return nil, fmt.Errorf("adx(%d) needs %d bars, have %d: %w", period, 2*period, n, ErrInsufficientHistory)
	}
	for i := 0; i < n; i++ {
		if !finite(highs[i]) || !finite(lows[i]) || !finite(closes[i]) || highs[i] < lows[i] {
			return nil, fmt.Errorf("adx bar %d: %w", i, ErrDegenerateInput)
		}
	}

	raw := talib.Adx(highs, lows, closes, period)
	out := make([]float64, n)
	for i := ADXLookback(period); i < n && i < len(raw); i++ {
		if finite(raw[i]) {
			out[i] = raw[i]
		}
	}
	return out, nil
}

// ADXSlope returns adx[t] - adx[t-lag]. It is zero wherever either end
// falls before validFrom.
func ADXSlope(adx []float64, lag, validFrom int) []float64 {
	out := make([]float64, len(adx))
	for t := range adx {
		if t-lag < validFrom || t-lag < 0 {
			continue
		}
		out[t] = adx[t] - adx[t-lag]
	}
	return out
}
