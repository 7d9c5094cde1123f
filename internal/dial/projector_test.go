package dial

import (
	"math"
	"testing"
)

func TestProject_North(t *testing.T) {
	st := Project(0)
	if st.BigIndex != 0 || st.BigLabel != 6 {
		t.Fatalf("big=%d label=%d want index 0 label 6", st.BigIndex, st.BigLabel)
	}
	if st.SubIndex != 0 || st.SmallLabel != 6 {
		t.Fatalf("sub=%d label=%d want index 0 label 6", st.SubIndex, st.SmallLabel)
	}
	if math.Abs(st.StartAngleRad-(-math.Pi/2)) > 1e-12 {
		t.Fatalf("StartAngleRad=%v want=-pi/2", st.StartAngleRad)
	}
}

func TestProject_BigSectorBoundary(t *testing.T) {
	// Just under the boundary: still in bucket [0,45), near the last sub-slice.
	st := Project(44.9)
	if st.BigLabel != 6 {
		t.Fatalf("heading 44.9: big label=%d want=6", st.BigLabel)
	}
	if st.SubIndex != 7 {
		t.Fatalf("heading 44.9: sub index=%d want=7", st.SubIndex)
	}
	// Exactly on the boundary: flips to bucket [45,90).
	st = Project(45.0)
	if st.BigLabel != 1 {
		t.Fatalf("heading 45.0: big label=%d want=1", st.BigLabel)
	}
	if st.SubIndex != 0 || st.SmallLabel != 1 {
		t.Fatalf("heading 45.0: sub=%d label=%d want 0/1", st.SubIndex, st.SmallLabel)
	}
}

// The nearest-midpoint rule must agree with the starting-angle bucket
// table at every slice center and at every exact boundary.
func TestProject_AgreesWithBuckets(t *testing.T) {
	for i := 0; i < Segments; i++ {
		for _, h := range []float64{
			float64(i) * SliceDeg,                // leading edge
			float64(i)*SliceDeg + SliceDeg/2,     // center
			float64(i)*SliceDeg + SliceDeg*0.999, // near trailing edge
		} {
			st := Project(h)
			wantBig := i / SlicesPerBig
			wantSub := i % SlicesPerBig
			if st.BigIndex != wantBig || st.SubIndex != wantSub {
				t.Fatalf("heading %v: got (%d,%d) want (%d,%d)", h, st.BigIndex, st.SubIndex, wantBig, wantSub)
			}
			if st.BigLabel != BigLabel(wantBig) || st.SmallLabel != SubLabel(wantBig, wantSub) {
				t.Fatalf("heading %v: labels (%d,%d) want (%d,%d)",
					h, st.BigLabel, st.SmallLabel, BigLabel(wantBig), SubLabel(wantBig, wantSub))
			}
		}
	}
}

func TestProject_WrapAround(t *testing.T) {
	st := Project(359.999)
	if st.BigIndex != 7 || st.BigLabel != 8 {
		t.Fatalf("big=%d label=%d want index 7 label 8", st.BigIndex, st.BigLabel)
	}
	if st.SubIndex != 7 {
		t.Fatalf("sub=%d want=7", st.SubIndex)
	}
	// Inputs outside [0,360) are normalized first.
	a := Project(-90)
	b := Project(270)
	if a.BigIndex != b.BigIndex || a.SubIndex != b.SubIndex {
		t.Fatalf("-90 and 270 disagree: (%d,%d) vs (%d,%d)", a.BigIndex, a.SubIndex, b.BigIndex, b.SubIndex)
	}
}

func TestProject_StartAngleTracksHeading(t *testing.T) {
	st := Project(90)
	want := (-90.0 - 90.0) * math.Pi / 180.0
	if math.Abs(st.StartAngleRad-want) > 1e-12 {
		t.Fatalf("StartAngleRad=%v want=%v", st.StartAngleRad, want)
	}
}

func TestProject_InvalidHeadingFallsBackToZero(t *testing.T) {
	st := Project(math.NaN())
	if st.HeadingDeg != 0 || st.BigLabel != 6 {
		t.Fatalf("NaN heading: got heading=%v big=%d want 0/6", st.HeadingDeg, st.BigLabel)
	}
}
