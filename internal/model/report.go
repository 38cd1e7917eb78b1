package model

import "time"

// Alignment classifies ribbon ordering.
type Alignment string

const (
	AlignmentBullish  Alignment = "BULLISH"
	AlignmentBuilding Alignment = "BUILDING"
)

// MomentumClass classifies RSI.
type MomentumClass string

const (
	MomentumOverheated MomentumClass = "OVERHEATED"
	MomentumStrong     MomentumClass = "STRONG"
	MomentumNeutral    MomentumClass = "NEUTRAL"
)

// SlopeClass classifies the ADX slope.
type SlopeClass string

const (
	SlopeExtreme  SlopeClass = "EXTREME_ACCELERATION"
	SlopeBuilding SlopeClass = "BUILDING"
	SlopeWeak     SlopeClass = "WEAK"
)

// DistanceClass classifies distance from the long ribbon.
type DistanceClass string

const (
	DistanceNearBase      DistanceClass = "NEAR_BASE"
	DistanceDeviationRisk DistanceClass = "DEVIATION_RISK"
)

// VolumeMarker tags a bar's volume relative to its moving average.
type VolumeMarker string

const (
	VolumeHigh     VolumeMarker = "HIGH"
	VolumeElevated VolumeMarker = "ELEVATED"
	VolumeNormal   VolumeMarker = "NORMAL"
)

// VolumeEntry is one row of the report's volume history.
type VolumeEntry struct {
	Date   time.Time
	Volume int64
	Ratio  float64
	Marker VolumeMarker
}

// ReportRecord is the structured report for one ticker at one date.
type ReportRecord struct {
	Ticker string
	Date   time.Time
	Price  float64
	Signal SignalKind

	Alignment Alignment

	RSI      float64
	Momentum MomentumClass

	Slope      float64
	SlopeClass SlopeClass

	Distance      float64 // percent from the green midpoint
	DistanceClass DistanceClass

	VolumeHistory []VolumeEntry

	ChartSymbol string
	ChartLink   string
}

// WaveScenario is the heuristic direction of the next price swing.
type WaveScenario string

const (
	WaveRebound      WaveScenario = "REBOUND"
	WaveCorrection   WaveScenario = "CORRECTION"
	WaveContinuation WaveScenario = "CONTINUATION"
)

// Confidence is a discrete confidence label.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// WavePrediction is the output of the wave heuristic.
type WavePrediction struct {
	Ticker     string
	Date       time.Time
	Price      float64
	Scenario   WaveScenario
	Target     float64
	TargetRef  string // ribbon the target refers to
	Confidence Confidence
	RSI        float64
	DistToBase float64 // percent from the green midpoint
}
