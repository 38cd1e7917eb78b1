package analyzer

import (
	"fmt"
	"time"

	"RibbonSentinel/internal/model"
)

// WaveConfig holds the RSI thresholds of the wave heuristic.
type WaveConfig struct {
	OversoldRSI          float64 `yaml:"oversold_rsi"`
	OverboughtRSI        float64 `yaml:"overbought_rsi"`
	ExtremeOversoldRSI   float64 `yaml:"extreme_oversold_rsi"`
	ExtremeOverboughtRSI float64 `yaml:"extreme_overbought_rsi"`
}

// DefaultWaveConfig returns the default wave thresholds.
func DefaultWaveConfig() WaveConfig {
	return WaveConfig{
		OversoldRSI:          35,
		OverboughtRSI:        65,
		ExtremeOversoldRSI:   25,
		ExtremeOverboughtRSI: 75,
	}
}

// Validate checks that the extreme bands lie outside the plain ones.
func (c WaveConfig) Validate() error {
	if !(0 < c.ExtremeOversoldRSI && c.ExtremeOversoldRSI <= c.OversoldRSI &&
		c.OversoldRSI < c.OverboughtRSI &&
		c.OverboughtRSI <= c.ExtremeOverboughtRSI && c.ExtremeOverboughtRSI < 100) {
		return fmt.Errorf("want 0 < extreme_oversold <= oversold < overbought <= extreme_overbought < 100, got %v/%v/%v/%v",
			c.ExtremeOversoldRSI, c.OversoldRSI, c.OverboughtRSI, c.ExtremeOverboughtRSI)
	}
	return nil
}

// PredictWave classifies the latest bar on or before target (nil means the
// last bar) into rebound, correction or continuation. This is a fixed
// heuristic on ribbon position and RSI.
func PredictWave(rs model.RibbonSeries, ticker string, target *time.Time, cfg WaveConfig) (model.WavePrediction, error) {
	idx := rs.Len() - 1
	if target != nil {
		idx = Locate(rs, *target)
	}
	if idx < 0 {
		return model.WavePrediction{}, fmt.Errorf("wave %s: %w", ticker, ErrNoData)
	}
	if !rs.Computed {
		return model.WavePrediction{}, fmt.Errorf("wave %s: %w", ticker, ErrNotComputed)
	}

	last := rs.Bars[idx]
	if !finite(last.Close) || !finite(last.MidGreen) || last.MidGreen == 0 {
		return model.WavePrediction{}, fmt.Errorf("wave %s: %w", ticker, ErrInvalidBar)
	}

	pred := model.WavePrediction{
		Ticker:     ticker,
		Date:       last.Time,
		Price:      round(last.Close, 2),
		Scenario:   model.WaveContinuation,
		Target:     round(last.MidGreen, 2),
		TargetRef:  "green",
		Confidence: model.ConfidenceLow,
		RSI:        round(last.RSI, 1),
		DistToBase: round(DistanceFromBase(last.Close, last.MidGreen), 2),
	}

	switch {
	case last.Close <= last.MidGreen && last.RSI < cfg.OversoldRSI:
		pred.Scenario = model.WaveRebound
		pred.Target, pred.TargetRef = round(last.MidBlue, 2), "blue"
		pred.Confidence = model.ConfidenceMedium
		if last.RSI < cfg.ExtremeOversoldRSI {
			pred.Confidence = model.ConfidenceHigh
		}
	case last.Close >= last.MidRed && last.RSI > cfg.OverboughtRSI:
		pred.Scenario = model.WaveCorrection
		pred.Target, pred.TargetRef = round(last.MidBlue, 2), "blue"
		pred.Confidence = model.ConfidenceMedium
		if last.RSI > cfg.ExtremeOverboughtRSI {
			pred.Confidence = model.ConfidenceHigh
		}
	}
	return pred, nil
}
