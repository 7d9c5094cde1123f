package dial

import (
	"compassdial/internal/angle"
)

// State is the per-frame projection of a displayed heading onto the
// dial. It is derived data with no cross-frame identity; callers must
// recompute it whenever the displayed heading changes.
type State struct {
	HeadingDeg float64

	// StartAngleRad is the screen angle of slice 0's leading edge, in
	// radians. Screen convention: 0 points right, -π/2 points up. The
	// dial rotates opposite to the heading so its north slice sits at
	// the top when heading is 0.
	StartAngleRad float64

	BigIndex int // 0..7, starting-angle bucket
	SubIndex int // 0..7 within the big sector

	BigLabel   int
	SmallLabel int
}

// Project resolves which big sector and sub-slice sit at the forward
// index for the given displayed heading. Pure; safe to call every
// frame.
//
// The forward index is the fixed top-of-screen ray (-90° on screen).
// Because the dial counter-rotates with the heading, that ray always
// sits exactly `heading` degrees past slice 0's start, so sector
// resolution reduces to nearest-midpoint matching in dial-offset
// coordinates.
func Project(headingDeg float64) State {
	h, ok := angle.Normalize(headingDeg)
	if !ok {
		h = 0
	}

	st := State{
		HeadingDeg:    h,
		StartAngleRad: angle.Radians(-90 - h),
	}

	// Current big sector: minimal wrapped distance from each sector
	// midpoint to the forward ray. On an exact boundary both
	// neighbours tie at 22.5°; the ray belongs to the sector opening
	// clockwise there (positive delta), which keeps nearest-midpoint
	// in exact agreement with the [k·45,(k+1)·45) label buckets.
	st.BigIndex = nearest(h, BigSectors, 0, BigSectorDeg)
	st.SubIndex = nearest(h, SlicesPerBig, float64(st.BigIndex)*BigSectorDeg, SliceDeg)

	st.BigLabel = BigLabel(st.BigIndex)
	st.SmallLabel = SubLabel(st.BigIndex, st.SubIndex)
	return st
}

// nearest picks the index i in [0,n) whose midpoint base+i·width+width/2
// has minimal wrapped distance to the forward offset h, preferring the
// clockwise (positive-delta) candidate on exact ties.
func nearest(h float64, n int, base, width float64) int {
	best := 0
	bestDelta := 0.0
	haveBest := false
	for i := 0; i < n; i++ {
		mid := base + float64(i)*width + width/2
		d := angle.ShortestSignedDelta(h, mid)
		if !haveBest || absLess(d, bestDelta) {
			best, bestDelta, haveBest = i, d, true
		}
	}
	return best
}

// absLess reports whether a is strictly nearer than b, treating an
// exact magnitude tie as won by the positive (clockwise) delta.
func absLess(a, b float64) bool {
	aa, ab := abs(a), abs(b)
	if aa != ab {
		return aa < ab
	}
	return a > b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
