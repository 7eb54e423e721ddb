package signature

// HaarTransform2D runs the standard (non-pyramidal-mixed) separable 2-D Haar
// wavelet transform on a 128x128 channel plane in place: first every row is
// transformed independently, then every column of the row-transformed
// result. Each halving step scales the high-frequency half by an additional
// 1/sqrt(2), and the DC survivor at index 0 of each row/column picks up the
// same factor once the recursion bottoms out.
func HaarTransform2D(p *ChannelPlane) {
	haarRows(&p.data)
	haarColumns(&p.data)
}

func haarRows(a *[PixelsSq]float32) {
	for i := 0; i < PixelsSq; i += Pixels {
		c := float32(1.0)
		h := Pixels
		for h > 1 {
			h1 := h >> 1
			c *= 0.7071

			t := make([]float32, h1)
			j1, j2 := i, i
			for k := 0; k < h1; k++ {
				j21 := j2 + 1
				t[k] = (a[j2] - a[j21]) * c
				a[j1] = a[j2] + a[j21]
				j1++
				j2 += 2
			}
			copy(a[i+h1:i+h], t)
			h = h1
		}
		a[i] *= c
	}
}

func haarColumns(a *[PixelsSq]float32) {
	for i := 0; i < Pixels; i++ {
		c := float32(1.0)
		h := Pixels
		for h > 1 {
			h1 := h >> 1
			c *= 0.7071

			t := make([]float32, h1)
			j1, j2 := i, i
			for k := 0; k < h1; k++ {
				j21 := j2 + Pixels
				t[k] = (a[j2] - a[j21]) * c
				a[j1] = a[j2] + a[j21]
				j1 += Pixels
				j2 += Pixels * 2
			}

			j1 = i + h1*Pixels
			for k := 0; k < h1; k++ {
				a[j1] = t[k]
				j1 += Pixels
			}
			h = h1
		}
		a[i] *= c
	}
}
