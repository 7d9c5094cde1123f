// Package dial defines the 64-slice symbolic dial and projects a
// heading onto it.
//
// The dial tiles 360° with 64 equal slices of 5.625°, grouped into 8
// big sectors of 45°. Labels are symbolic and deliberately
// non-sequential: the sector starting at 0° carries label 6, the one
// at 45° carries 1, and so on per labelSequence. Sub-slices inside a
// big sector reuse the same sequence rotated so it starts at the big
// sector's own label. Everything here is fixed data plus index
// arithmetic; rotation only ever moves the angular position of labels,
// never their relative order.
package dial

// Dial geometry. 64 slices exactly tile 360°.
const (
	Segments      = 64
	BigSectors    = 8
	SlicesPerBig  = Segments / BigSectors
	SliceDeg      = 360.0 / Segments // 5.625
	BigSectorDeg  = 360.0 / BigSectors
)

// labelSequence names the big sectors in dial order by starting-angle
// bucket: [0,45)→6, [45,90)→1, ... [315,360)→8. It doubles as the
// rotation source for sub-slice labels.
var labelSequence = [BigSectors]int{6, 1, 2, 3, 4, 7, 5, 8}

// BigLabel returns the symbolic label of big sector b (0..7, by
// starting-angle bucket).
func BigLabel(b int) int {
	return labelSequence[mod8(b)]
}

// SubLabel returns the label of sub-slice j (0..7) inside big sector b
// (0..7): the sequence rotated so its first element is the big
// sector's own label.
func SubLabel(b, j int) int {
	return labelSequence[mod8(b+j)]
}

// Sequence returns a copy of the fixed label sequence.
func Sequence() [BigSectors]int { return labelSequence }

func mod8(i int) int {
	i %= BigSectors
	if i < 0 {
		i += BigSectors
	}
	return i
}
