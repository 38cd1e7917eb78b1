package calculator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMASeries computes the exponential moving average of values over period.
// The first value is seeded from the first observation; early values carry
// the usual warm-up error and are not corrected.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) == 0 {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// VolumeMA computes the rolling simple moving average of volumes.
// Bars before the window fills are NaN.
func VolumeMA(volumes []float64, period int) []float64 {
	out := nanSeries(len(volumes))
	if period <= 0 || len(volumes) < period {
		return out
	}
	sma := talib.Sma(volumes, period)
	for i := period - 1; i < len(volumes); i++ {
		out[i] = sma[i]
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
