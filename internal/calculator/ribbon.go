package calculator

import (
	"log"

	"RibbonSentinel/internal/model"
)

// Ribbon is a pair of EMA lengths whose average forms a trend reference line.
type Ribbon struct {
	Name       string
	Start, End int
}

var (
	RedRibbon   = Ribbon{Name: "red", Start: 10, End: 35}
	BlueRibbon  = Ribbon{Name: "blue", Start: 45, End: 85}
	GreenRibbon = Ribbon{Name: "green", Start: 100, End: 160}
)

const (
	RSIPeriod      = 14
	VolumeMAPeriod = 20
	ADXPeriod      = 14
	ADXSlopeLag    = 2
)

// Calculate derives ribbons, oscillators and squeeze metrics from bars.
// The input slice is not modified. Empty input yields an uncomputed series.
func Calculate(symbol string, bars []model.OHLCV) model.RibbonSeries {
	if len(bars) == 0 {
		return model.RibbonSeries{Symbol: symbol}
	}

	highs, lows, closes, volumes := model.Columns(bars)

	redS, redE := EMASeries(closes, RedRibbon.Start), EMASeries(closes, RedRibbon.End)
	blueS, blueE := EMASeries(closes, BlueRibbon.Start), EMASeries(closes, BlueRibbon.End)
	greenS, greenE := EMASeries(closes, GreenRibbon.Start), EMASeries(closes, GreenRibbon.End)

	rsi := RSISeries(closes, RSIPeriod)
	volMA := VolumeMA(volumes, VolumeMAPeriod)

	adx, adxErr := ADXSeries(highs, lows, closes, ADXPeriod)
	validFrom := ADXLookback(ADXPeriod)
	if adxErr != nil {
		log.Printf("[WARN] %s: ADX unavailable, using zeros: %v", symbol, adxErr)
		adx = make([]float64, len(bars))
		validFrom = len(bars)
	}
	slope := ADXSlope(adx, ADXSlopeLag, validFrom)

	out := make([]model.RibbonBar, len(bars))
	for i, b := range bars {
		rb := model.RibbonBar{
			OHLCV:      b,
			RedStart:   redS[i],
			RedEnd:     redE[i],
			MidRed:     (redS[i] + redE[i]) / 2,
			BlueStart:  blueS[i],
			BlueEnd:    blueE[i],
			MidBlue:    (blueS[i] + blueE[i]) / 2,
			GreenStart: greenS[i],
			GreenEnd:   greenE[i],
			MidGreen:   (greenS[i] + greenE[i]) / 2,
			RSI:        rsi[i],
			VolumeMA:   volMA[i],
			ADX:        adx[i],
			ADXSlope:   slope[i],
		}
		rb.DistRedBlue = DistancePct(rb.MidRed, rb.MidBlue)
		rb.DistBlueGreen = DistancePct(rb.MidBlue, rb.MidGreen)
		rb.Squeeze = IsSqueeze(rb.DistRedBlue, rb.DistBlueGreen, DefaultSqueezePct)
		out[i] = rb
	}

	return model.RibbonSeries{
		Symbol:   symbol,
		Bars:     out,
		Computed: true,
		ADXErr:   adxErr,
	}
}
