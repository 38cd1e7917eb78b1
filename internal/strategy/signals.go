package strategy

import (
	"fmt"

	"RibbonSentinel/internal/model"
)

// SignalConfig holds the tunable thresholds of the signal detector.
type SignalConfig struct {
	// Refined adds the dip-buy entry, volume/RSI gating and the overbought exit.
	Refined bool `yaml:"refined"`
	// FirstOnly keeps only the first bar of every run of signals.
	FirstOnly bool `yaml:"first_only"`

	VolumeRatio float64 `yaml:"volume_ratio"` // buy needs volume > ratio * volume MA
	RSIMin      float64 `yaml:"rsi_min"`      // buy needs RSI within [min, max]
	RSIMax      float64 `yaml:"rsi_max"`
	RSIExtreme  float64 `yaml:"rsi_extreme"`  // sell whenever RSI is above
	SlopeCutoff float64 `yaml:"slope_cutoff"` // dip-buy needs ADX slope above
}

// DefaultSignalConfig returns the plain crossover detector with refined thresholds pre-filled.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		VolumeRatio: 1.0,
		RSIMin:      45,
		RSIMax:      70,
		RSIExtreme:  80,
		SlopeCutoff: 0.1,
	}
}

// Validate checks threshold consistency.
func (c SignalConfig) Validate() error {
	if c.VolumeRatio < 0 {
		return fmt.Errorf("signals.volume_ratio must be non-negative")
	}
	if c.RSIMin > c.RSIMax {
		return fmt.Errorf("signals.rsi_min (%.1f) exceeds rsi_max (%.1f)", c.RSIMin, c.RSIMax)
	}
	if c.RSIExtreme < 0 || c.RSIExtreme > 100 {
		return fmt.Errorf("signals.rsi_extreme must be within [0, 100]")
	}
	return nil
}

// Detect returns the buy and sell series for rs according to cfg.
func Detect(rs model.RibbonSeries, cfg SignalConfig) (buy, sell []bool) {
	if cfg.Refined {
		buy, sell = DetectRefined(rs, cfg)
	} else {
		buy, sell = DetectCrossover(rs)
	}
	if cfg.FirstOnly {
		buy, sell = FirstOccurrence(buy), FirstOccurrence(sell)
	}
	return buy, sell
}

// DetectCrossover flags bars where the short ribbon midpoint crosses the
// medium ribbon midpoint: upward for buy, downward for sell.
func DetectCrossover(rs model.RibbonSeries) (buy, sell []bool) {
	n := rs.Len()
	buy, sell = make([]bool, n), make([]bool, n)
	if !rs.Computed {
		return buy, sell
	}
	for t := 1; t < n; t++ {
		prev, cur := rs.Bars[t-1], rs.Bars[t]
		buy[t] = crossedAbove(prev.MidRed, prev.MidBlue, cur.MidRed, cur.MidBlue)
		sell[t] = crossedBelow(prev.MidRed, prev.MidBlue, cur.MidRed, cur.MidBlue)
	}
	return buy, sell
}

// DetectRefined extends the crossover with a dip-buy entry (close reclaiming the
// short ribbon while ADX accelerates), gates buys on volume and RSI, and adds an
// overbought sell.
func DetectRefined(rs model.RibbonSeries, cfg SignalConfig) (buy, sell []bool) {
	n := rs.Len()
	buy, sell = make([]bool, n), make([]bool, n)
	if !rs.Computed {
		return buy, sell
	}
	for t := 1; t < n; t++ {
		prev, cur := rs.Bars[t-1], rs.Bars[t]

		crossUp := crossedAbove(prev.MidRed, prev.MidBlue, cur.MidRed, cur.MidBlue)
		dip := crossedAbove(prev.Close, prev.MidRed, cur.Close, cur.MidRed) && cur.ADXSlope > cfg.SlopeCutoff
		volumeOK := cur.Volume > cfg.VolumeRatio*cur.VolumeMA
		rsiOK := cur.RSI >= cfg.RSIMin && cur.RSI <= cfg.RSIMax

		buy[t] = (crossUp || dip) && volumeOK && rsiOK
		sell[t] = crossedBelow(prev.MidRed, prev.MidBlue, cur.MidRed, cur.MidBlue) || cur.RSI > cfg.RSIExtreme
	}
	return buy, sell
}

// FirstOccurrence keeps only the first bar of every run of true values.
func FirstOccurrence(raw []bool) []bool {
	out := make([]bool, len(raw))
	for t, v := range raw {
		out[t] = v && (t == 0 || !raw[t-1])
	}
	return out
}

// ResolveSignal maps a buy/sell pair to one signal. Buy wins when both fire.
func ResolveSignal(buy, sell bool) model.SignalKind {
	switch {
	case buy:
		return model.SignalBuy
	case sell:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}

// SignalAt returns the resolved signal of rs at bar idx.
func SignalAt(rs model.RibbonSeries, cfg SignalConfig, idx int) model.SignalKind {
	if idx < 0 || idx >= rs.Len() {
		return model.SignalNeutral
	}
	buy, sell := Detect(rs, cfg)
	return ResolveSignal(buy[idx], sell[idx])
}

// previous a <= b, now a > b. NaN never crosses.
func crossedAbove(prevA, prevB, a, b float64) bool {
	return prevA <= prevB && a > b
}

func crossedBelow(prevA, prevB, a, b float64) bool {
	return prevA >= prevB && a < b
}
