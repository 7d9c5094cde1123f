package heading

import (
	"fmt"
	"math"
	"strings"

	"compassdial/internal/angle"
)

// Policy selects which sample conventions the estimator will accept.
type Policy int

const (
	// PolicyAuto accepts native headings and falls back to
	// Euler-derived estimates while no native heading has been seen.
	PolicyAuto Policy = iota
	// PolicyNativeOnly discards samples lacking a native heading
	// outright. Some platforms report Euler angles with a systematic
	// offset; there it is better to produce nothing than to be wrong.
	PolicyNativeOnly
)

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PolicyAuto, nil
	case "native-only":
		return PolicyNativeOnly, nil
	default:
		return PolicyAuto, fmt.Errorf("unknown estimator policy %q", s)
	}
}

// sourceMode is the estimator's one-shot state machine: it starts in
// eulerOnly and transitions to nativePreferred the first time a finite
// native heading arrives, never back. Once a platform has proven it
// delivers native headings, Euler-derived estimates are ignored for
// the rest of the session.
type sourceMode int

const (
	modeEulerOnly sourceMode = iota
	modeNativePreferred
)

// Estimator turns one raw sample into a normalized absolute heading
// candidate, or rejects it. It is not safe for concurrent use; the
// owning service serializes sample ingestion.
type Estimator struct {
	policy Policy
	mode   sourceMode
}

func NewEstimator(policy Policy) *Estimator {
	return &Estimator{policy: policy}
}

// NativePreferred reports whether a native heading has been seen.
func (e *Estimator) NativePreferred() bool {
	return e.mode == modeNativePreferred
}

// Estimate returns the heading candidate for s in [0, 360).
// ok is false when the sample is rejected; rejection is routine (noise,
// missing fields, policy) and the next sample simply supersedes it.
func (e *Estimator) Estimate(s Sample) (float64, bool) {
	if s.CompassDeg != nil {
		if h, ok := angle.Normalize(*s.CompassDeg); ok {
			e.mode = modeNativePreferred
			return h, true
		}
		// Non-finite native value: fall through to the Euler fields.
	}

	if e.policy == PolicyNativeOnly || e.mode == modeNativePreferred {
		return 0, false
	}

	if s.AlphaDeg == nil || s.BetaDeg == nil || s.GammaDeg == nil {
		return 0, false
	}
	alpha, beta, gamma := *s.AlphaDeg, *s.BetaDeg, *s.GammaDeg
	if !finite(alpha) || !finite(beta) || !finite(gamma) {
		return 0, false
	}
	return eulerHeading(alpha, beta, gamma)
}

// eulerHeading computes a tilt-compensated heading from device Euler
// angles, so the heading stays correct when the device is not held
// flat: project the device's forward axis onto the horizontal plane
// and take its azimuth.
func eulerHeading(alphaDeg, betaDeg, gammaDeg float64) (float64, bool) {
	yaw := angle.Radians(alphaDeg)
	pitch := angle.Radians(betaDeg)
	roll := angle.Radians(gammaDeg)

	vx := -math.Cos(yaw)*math.Sin(roll) - math.Sin(yaw)*math.Sin(pitch)*math.Cos(roll)
	vy := -math.Sin(yaw)*math.Sin(roll) + math.Cos(yaw)*math.Sin(pitch)*math.Cos(roll)
	if !finite(vx) || !finite(vy) {
		// Best effort when the projection degenerates.
		return angle.Normalize(360 - alphaDeg)
	}

	h := math.Atan2(vx, vy)
	if h < 0 {
		h += 2 * math.Pi
	}
	return angle.Normalize(angle.Degrees(h))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
