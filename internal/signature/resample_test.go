package signature

import (
	"image"
	"image/color"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, Pixels, Pixels))
	for y := 0; y < Pixels; y++ {
		for x := 0; x < Pixels; x++ {
			src.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 13) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}

	dst := Resample(src, Pixels, Pixels)

	for y := 0; y < Pixels; y++ {
		for x := 0; x < Pixels; x++ {
			want := src.NRGBAAt(x, y)
			got := dst.NRGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("pixel (%d,%d): got %+v, want %+v", x, y, got, want)
			}
		}
	}
}

func TestResampleDownscaleDimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 512, 256))
	dst := Resample(src, Pixels, Pixels)
	if dst.Bounds().Dx() != Pixels || dst.Bounds().Dy() != Pixels {
		t.Fatalf("expected %dx%d output, got %dx%d", Pixels, Pixels, dst.Bounds().Dx(), dst.Bounds().Dy())
	}
}
