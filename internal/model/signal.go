package model

// SignalKind is the discrete outcome of the signal detector at one bar.
type SignalKind string

const (
	SignalBuy     SignalKind = "BUY"
	SignalSell    SignalKind = "SELL"
	SignalNeutral SignalKind = "NEUTRAL"
)

// BandStatus is the wide-band classification of the latest bar.
type BandStatus string

const (
	BandInsufficientData   BandStatus = "INSUFFICIENT_DATA"
	BandAccumulationStrong BandStatus = "ACCUMULATION_STRONG"
	BandAccumulationRetest BandStatus = "ACCUMULATION_RETEST"
	BandStop               BandStatus = "STOP"
	BandCriticalSupport    BandStatus = "CRITICAL_SUPPORT"
	BandStrongBull         BandStatus = "STRONG_BULL"
	BandObserve            BandStatus = "OBSERVE"
)

// BandReading is the wide-band status of a series along with the bar it was read from.
type BandReading struct {
	Symbol         string
	Status         BandStatus
	Bar            WideBandBar
	PinBar         bool
	BullishSession bool // close >= open
}
