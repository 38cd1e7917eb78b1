package calculator

import (
	"fmt"
	"math"
	"sort"

	"RibbonSentinel/internal/model"
)

// WideBandConfig lists the EMA periods of each zone and the reference periods.
type WideBandConfig struct {
	Red            []int `yaml:"red"`
	Green          []int `yaml:"green"`
	Blue           []int `yaml:"blue"`
	OverheatPeriod int   `yaml:"overheat_period"`
	StopLossPeriod int   `yaml:"stop_loss_period"`
	VolumePeriod   int   `yaml:"volume_period"`
}

// DenseWideBand is the default grid.
func DenseWideBand() WideBandConfig {
	return WideBandConfig{
		Red:            []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		Green:          []int{30, 33, 36, 39, 42, 45, 48, 51, 54, 57, 60},
		Blue:           []int{180, 185, 190, 195, 200, 205, 210, 215, 220},
		OverheatPeriod: 30,
		StopLossPeriod: 60,
		VolumePeriod:   20,
	}
}

// SparseWideBand is the lighter grid.
func SparseWideBand() WideBandConfig {
	return WideBandConfig{
		Red:            []int{3, 4, 5, 7, 8, 9, 10, 11, 12, 15},
		Green:          []int{30, 35, 40, 45, 50, 60},
		Blue:           []int{180, 190, 200, 210, 220},
		OverheatPeriod: 30,
		StopLossPeriod: 60,
		VolumePeriod:   20,
	}
}

// Validate checks that every zone has periods and all periods are positive.
func (c WideBandConfig) Validate() error {
	zones := map[string][]int{"red": c.Red, "green": c.Green, "blue": c.Blue}
	for name, periods := range zones {
		if len(periods) == 0 {
			return fmt.Errorf("wideband.%s: no periods", name)
		}
		for _, p := range periods {
			if p <= 0 {
				return fmt.Errorf("wideband.%s: period %d must be positive", name, p)
			}
		}
	}
	if c.OverheatPeriod <= 0 || c.StopLossPeriod <= 0 || c.VolumePeriod <= 0 {
		return fmt.Errorf("wideband: overheat, stop-loss and volume periods must be positive")
	}
	return nil
}

// Periods returns every distinct EMA period the grid needs, ascending.
func (c WideBandConfig) Periods() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(ps ...int) {
		for _, p := range ps {
			if p > 0 && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	add(c.Red...)
	add(c.Green...)
	add(c.Blue...)
	add(c.OverheatPeriod, c.StopLossPeriod)
	sort.Ints(out)
	return out
}

// WideBand computes the EMA grid and zone envelopes for every bar.
func WideBand(bars []model.OHLCV, cfg WideBandConfig) []model.WideBandBar {
	if len(bars) == 0 {
		return nil
	}
	closes := model.Closes(bars)
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}

	emas := make(map[int][]float64)
	for _, p := range cfg.Periods() {
		emas[p] = EMASeries(closes, p)
	}
	volAvg := VolumeMA(volumes, cfg.VolumePeriod)

	out := make([]model.WideBandBar, len(bars))
	for i, b := range bars {
		wb := model.WideBandBar{
			OHLCV:     b,
			EMA:       make(map[int]float64, len(emas)),
			VolumeAvg: volAvg[i],
		}
		for p, s := range emas {
			wb.EMA[p] = s[i]
		}
		wb.RedMin, wb.RedMax = envelope(wb.EMA, cfg.Red)
		wb.GreenMin, wb.GreenMax = envelope(wb.EMA, cfg.Green)
		wb.BlueMin, wb.BlueMax = envelope(wb.EMA, cfg.Blue)

		if ref := wb.EMA[cfg.OverheatPeriod]; ref != 0 {
			wb.Overheat = (b.Close - ref) / ref * 100
		}
		wb.StopLoss = wb.EMA[cfg.StopLossPeriod]
		wb.RibbonWidth = wb.GreenMax - wb.GreenMin
		out[i] = wb
	}
	return out
}

// envelope returns the min and max of the EMA values for periods.
func envelope(ema map[int]float64, periods []int) (lo, hi float64) {
	if len(periods) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range periods {
		v := ema[p]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
