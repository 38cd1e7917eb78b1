package strategy

import "RibbonSentinel/internal/model"

// ClassifyWideBand reads the status of the latest bar. Rules are checked in
// priority order and the first match wins:
//
//	support retest   low <= green max, close >= green min, volume above average
//	stop             close below green min or blue min
//	critical support low <= blue max, close >= blue min
//	strong bull      close > red max > green max > blue max
//	observe          otherwise
func ClassifyWideBand(symbol string, bars []model.WideBandBar) model.BandReading {
	reading := model.BandReading{Symbol: symbol, Status: model.BandInsufficientData}
	if len(bars) < 2 {
		if len(bars) == 1 {
			reading.Bar = bars[0]
		}
		return reading
	}

	row := bars[len(bars)-1]
	reading.Bar = row
	reading.PinBar = IsPinBar(row.OHLCV)
	reading.BullishSession = IsBullishSession(row.OHLCV)
	reading.Status = bandStatus(row, reading.PinBar)
	return reading
}

func bandStatus(row model.WideBandBar, pinBar bool) model.BandStatus {
	if row.Low <= row.GreenMax && row.Close >= row.GreenMin && row.Volume > row.VolumeAvg {
		if pinBar {
			return model.BandAccumulationStrong
		}
		return model.BandAccumulationRetest
	}
	if row.Close < row.GreenMin || row.Close < row.BlueMin {
		return model.BandStop
	}
	if row.Low <= row.BlueMax && row.Close >= row.BlueMin {
		return model.BandCriticalSupport
	}
	if row.Close > row.RedMax && row.RedMax > row.GreenMax && row.GreenMax > row.BlueMax {
		return model.BandStrongBull
	}
	return model.BandObserve
}
