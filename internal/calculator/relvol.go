package calculator

import (
	"math"

	"RibbonSentinel/internal/model"
)

// RelativeVolumeWindow is the number of same-hour samples in the baseline.
const RelativeVolumeWindow = 20

// RelativeVolume normalizes intraday volume against the rolling average of
// the previous bars printed at the same hour of day (current bar included).
// Baseline and RV stay NaN until window samples exist for that hour.
func RelativeVolume(bars []model.OHLCV, window int) []model.HourlyVolume {
	out := make([]model.HourlyVolume, len(bars))
	byHour := make(map[int][]float64)
	for i, b := range bars {
		h := b.Time.Hour()
		byHour[h] = append(byHour[h], b.Volume)

		hv := model.HourlyVolume{OHLCV: b, Hour: h, Baseline: math.NaN(), RV: math.NaN()}
		if samples := byHour[h]; window > 0 && len(samples) >= window {
			sum := 0.0
			for _, v := range samples[len(samples)-window:] {
				sum += v
			}
			hv.Baseline = sum / float64(window)
			if hv.Baseline > 0 {
				hv.RV = b.Volume / hv.Baseline
			}
		}
		out[i] = hv
	}
	return out
}
