package index

import "github.com/cwbudde/goiqdb/internal/signature"

// weights holds the per-(bin row, channel) scoring weights from the
// reference paper. Row 0 is used only for the luminance base score; rows
// 1..5 discount matching coefficient positions, with row 5 shared by every
// position past the fifth row/column of the 128x128 plane.
var weights = [6][3]float32{
	{5.00, 19.21, 34.37},
	{0.83, 1.26, 0.36},
	{1.01, 0.44, 0.45},
	{0.52, 0.53, 0.14},
	{0.47, 0.28, 0.18},
	{0.30, 0.14, 0.27},
}

// bin is a precomputed 128x128 weight-row mask: bin[y*Pixels+x] = min(max(x,
// y), 5). Coefficient positions near the top-left corner (low frequency) get
// low, more-discriminative bin indices; everything past row/column 5 shares
// bin 5.
var bin = computeBin()

func computeBin() [signature.PixelsSq]uint8 {
	var b [signature.PixelsSq]uint8
	for y := 0; y < signature.Pixels; y++ {
		for x := 0; x < signature.Pixels; x++ {
			m := x
			if y > m {
				m = y
			}
			if m > 5 {
				m = 5
			}
			b[y*signature.Pixels+x] = uint8(m)
		}
	}
	return b
}
