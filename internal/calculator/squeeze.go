package calculator

import "math"

// DefaultSqueezePct is the maximum distance between consecutive ribbon
// midpoints, in percent, for the ribbons to count as squeezed.
const DefaultSqueezePct = 4.0

// DistancePct returns |a-b| as a percentage of b.
func DistancePct(a, b float64) float64 {
	return math.Abs(a-b) / b * 100
}

// IsSqueeze reports whether both inter-ribbon distances are within maxPct.
func IsSqueeze(distRedBlue, distBlueGreen, maxPct float64) bool {
	return distRedBlue <= maxPct && distBlueGreen <= maxPct
}
