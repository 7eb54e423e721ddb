package signature

import (
	"image"
	"image/color"
)

// Resample resizes src to dstW x dstH using bilinear triangle-filter
// resampling: each destination pixel integrates every source pixel it
// overlaps, weighted by the fractional area of overlap ("x_portion x
// y_portion"), and RGB is additionally normalized by the accumulated alpha
// weight to approximate premultiplied compositing. This mirrors the
// resampler the original prototype used ahead of the Haar transform; any
// comparably accurate filter would satisfy the signature algorithm, but
// this one is bit-for-bit grounded on that prototype so reference vectors
// match.
func Resample(src image.Image, dstW, dstH int) *image.NRGBA {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))

	if srcW == 0 || srcH == 0 || dstW == 0 || dstH == 0 {
		return dst
	}

	fSrcW, fSrcH := float32(srcW), float32(srcH)
	fDstW, fDstH := float32(dstW), float32(dstH)

	for y := 0; y < dstH; y++ {
		sy1 := float32(y) * fSrcH / fDstH
		sy2 := float32(y+1) * fSrcH / fDstH

		for x := 0; x < dstW; x++ {
			sx1 := float32(x) * fSrcW / fDstW
			sx2 := float32(x+1) * fSrcW / fDstW

			var red, green, blue, alpha float32
			var alphaSum, contribSum, sPixels float32

			sy := sy1
			for sy < sy2 {
				yPortion := rowPortion(sy, sy1, sy2)
				sy = floorIfSameRow(sy, sy1)

				sx := sx1
				for sx < sx2 {
					xPortion := rowPortion(sx, sx1, sx2)
					sx = floorIfSameRow(sx, sx1)

					contribution := xPortion * yPortion

					px := int(sx)
					py := int(sy)
					if px >= srcW {
						px = srcW - 1
					}
					if py >= srcH {
						py = srcH - 1
					}
					r, g, b, a := sampleNRGBA(src, bounds.Min.X+px, bounds.Min.Y+py)

					alphaFactor := float32(127.0) * contribution
					red += r * alphaFactor
					green += g * alphaFactor
					blue += b * alphaFactor
					alpha += a * alphaFactor
					alphaSum += alphaFactor
					contribSum += contribution
					sPixels += contribution

					sx += 1.0
				}
				sy += 1.0
			}

			if sPixels != 0 {
				red /= sPixels
				green /= sPixels
				blue /= sPixels
				alpha /= sPixels
			}
			if alphaSum != 0 {
				if contribSum != 0 {
					alphaSum /= contribSum
				}
				red /= alphaSum
				green /= alphaSum
				blue /= alphaSum
			}

			dst.SetNRGBA(x, y, color.NRGBA{
				R: round255(red),
				G: round255(green),
				B: round255(blue),
				A: round127(alpha),
			})
		}
	}

	return dst
}

// rowPortion computes the fractional overlap of [s, s+1) with [lo, hi).
func rowPortion(s, lo, hi float32) float32 {
	switch {
	case floor32(s) == floor32(lo):
		portion := 1 - (s - floor32(s))
		if portion > hi-lo {
			portion = hi - lo
		}
		return portion
	case s == floor32(hi):
		return hi - floor32(hi)
	default:
		return 1.0
	}
}

// floorIfSameRow snaps s down to its floor when it falls in the same
// integer row as lo, matching the reference resampler's coordinate walk.
func floorIfSameRow(s, lo float32) float32 {
	if floor32(s) == floor32(lo) {
		return floor32(s)
	}
	return s
}

func floor32(v float32) float32 {
	i := int64(v)
	if float32(i) > v {
		i--
	}
	return float32(i)
}

func sampleNRGBA(img image.Image, x, y int) (r, g, b, a float32) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return float32(c.R), float32(c.G), float32(c.B), float32(c.A)
}

func round255(v float32) uint8 {
	if v >= 255.5 {
		return 255
	}
	if v < 0 {
		v = 0
	}
	return uint8(v + 0.5)
}

func round127(v float32) uint8 {
	if v >= 127.5 {
		return 127
	}
	if v < 0 {
		v = 0
	}
	return uint8(v + 0.5)
}
