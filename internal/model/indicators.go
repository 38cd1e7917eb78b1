package model

// RibbonBar is one bar enriched with ribbon and oscillator values.
// RSI and VolumeMA are NaN until enough history exists; ADX and ADXSlope are zero-filled.
type RibbonBar struct {
	OHLCV

	RedStart, RedEnd, MidRed       float64 // EMA10 / EMA35
	BlueStart, BlueEnd, MidBlue    float64 // EMA45 / EMA85
	GreenStart, GreenEnd, MidGreen float64 // EMA100 / EMA160

	RSI      float64
	VolumeMA float64
	ADX      float64
	ADXSlope float64

	DistRedBlue   float64 // percent
	DistBlueGreen float64 // percent
	Squeeze       bool
}

// RibbonSeries is the enriched copy produced by the calculator.
type RibbonSeries struct {
	Symbol string
	Bars   []RibbonBar
	// Computed is false when the calculator had nothing to work with.
	Computed bool
	// ADXErr is set when the ADX column was zero-filled.
	ADXErr error
}

// Len returns the number of bars.
func (s RibbonSeries) Len() int { return len(s.Bars) }

// OHLCV returns the raw bars underlying the series.
func (s RibbonSeries) OHLCV() []OHLCV {
	out := make([]OHLCV, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.OHLCV
	}
	return out
}

// WideBandBar holds the dense EMA grid and zone envelopes for one bar.
type WideBandBar struct {
	OHLCV

	EMA map[int]float64

	RedMin, RedMax     float64
	GreenMin, GreenMax float64
	BlueMin, BlueMax   float64

	Overheat    float64 // percent of close above the overheat EMA
	StopLoss    float64
	VolumeAvg   float64 // NaN until the window fills
	RibbonWidth float64 // GreenMax - GreenMin
}

// HourlyVolume is the relative volume of one intraday bar against its hour-of-day baseline.
type HourlyVolume struct {
	OHLCV
	Hour     int
	Baseline float64 // NaN until 20 same-hour samples exist
	RV       float64
}
