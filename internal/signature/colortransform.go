package signature

import "image"

// RGBToYIQ converts a resampled 128x128 raster to three YIQ channel planes.
// Y is luminance in [0,255]; I and Q are chrominance in roughly [-127,127].
func RGBToYIQ(src *image.NRGBA) (y, i, q *ChannelPlane) {
	y, i, q = &ChannelPlane{}, &ChannelPlane{}, &ChannelPlane{}

	idx := 0
	for py := 0; py < Pixels; py++ {
		rowOff := src.PixOffset(0, py)
		for px := 0; px < Pixels; px++ {
			off := rowOff + px*4
			r := float32(src.Pix[off+0])
			g := float32(src.Pix[off+1])
			b := float32(src.Pix[off+2])

			y.data[idx] = 0.299*r + 0.587*g + 0.114*b
			i.data[idx] = 0.596*r - 0.275*g - 0.321*b
			q.data[idx] = 0.212*r - 0.523*g + 0.311*b
			idx++
		}
	}
	return y, i, q
}
