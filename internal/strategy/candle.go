package strategy

import (
	"math"

	"RibbonSentinel/internal/model"
)

// flatRange stands in for the range of a bar with high == low.
const flatRange = 0.001

// IsPinBar reports whether bar has a lower wick longer than twice its body
// and covering more than half of its range.
func IsPinBar(bar model.OHLCV) bool {
	rng := bar.High - bar.Low
	if rng == 0 {
		rng = flatRange
	}
	body := math.Abs(bar.Close - bar.Open)
	lowerWick := math.Min(bar.Open, bar.Close) - bar.Low
	return lowerWick > 2*body && lowerWick/rng > 0.5
}

// IsBullishSession reports whether the bar closed at or above its open.
func IsBullishSession(bar model.OHLCV) bool {
	return bar.Close >= bar.Open
}
