package heading

import "time"

// Sample is one raw orientation event from a sensor source.
//
// Platforms disagree on what they report: some deliver an absolute
// compass heading directly, others only raw alpha/beta/gamma Euler
// angles, and some deliver both in the same event. Absent fields are
// nil; non-finite values are treated the same as absent by the
// estimator. The core never polls for samples, it only accepts pushes.
type Sample struct {
	Time time.Time `json:"-"`

	// CompassDeg is a platform-native absolute heading, degrees
	// clockwise from north. When finite it takes precedence over the
	// Euler fields.
	CompassDeg *float64 `json:"compass_deg,omitempty"`

	// Device-frame Euler angles, degrees: alpha=yaw, beta=pitch,
	// gamma=roll.
	AlphaDeg *float64 `json:"alpha_deg,omitempty"`
	BetaDeg  *float64 `json:"beta_deg,omitempty"`
	GammaDeg *float64 `json:"gamma_deg,omitempty"`
}

// Deg is a convenience for building optional sample fields.
func Deg(v float64) *float64 { return &v }
