// Package angle provides the circular arithmetic used everywhere a
// heading is stored or compared.
//
// Headings are degrees clockwise from north in [0, 360). Deltas are
// signed shortest-path differences in (-180, 180]. Getting either of
// these subtly wrong is the classic source of "dial spins the long way
// around" bugs, so all callers go through this package instead of
// doing their own mod math.
package angle

import "math"

// Normalize folds d into [0, 360).
//
// ok is false when d is not finite; callers must treat that as "ignore
// this update" rather than propagate NaN into stored headings.
func Normalize(d float64) (float64, bool) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	// Mod can return 360 for inputs like -1e-15 after the shift.
	if d >= 360 {
		d -= 360
	}
	return d, true
}

// ShortestSignedDelta returns the minimal-magnitude signed difference
// to - from, folded into (-180, 180]. Adding the result to from and
// normalizing always lands on to.
func ShortestSignedDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
