// Package signature computes the compact Haar wavelet fingerprint used for
// visual-similarity search: a 128x128 resample, RGB->YIQ color transform,
// separable 2-D Haar wavelet transform, and per-channel selection of the 40
// largest-magnitude coefficients.
package signature

import (
	"fmt"
	"image"
)

const (
	// Pixels is the edge length of the square raster the signature is computed over.
	Pixels = 128
	// PixelsSq is the number of pixels in a resampled channel plane.
	PixelsSq = Pixels * Pixels
	// Coefs is the number of retained coefficient positions per channel.
	Coefs = 40
	// Channels is the number of YIQ channels.
	Channels = 3
)

// grayscaleThreshold is the combined |I|+|Q| average below which a signature
// is treated as effectively colorless.
const grayscaleThreshold = 0.006

// Signature is the immutable fingerprint of one image: three luminance
// averages plus, per channel, the 40 largest-magnitude Haar coefficient
// positions (sign-encoded linear indices into a 128x128 plane).
type Signature struct {
	Avglf [Channels]float32
	Coefs [Channels][Coefs]int16
}

// Compute resamples img to 128x128, converts to YIQ, runs the 2-D Haar
// transform on each channel, and selects the 40 largest coefficients per
// channel, producing the image's Signature.
func Compute(img image.Image) (*Signature, error) {
	if img == nil {
		return nil, &DecodeError{Reason: "nil image"}
	}

	resampled := Resample(img, Pixels, Pixels)
	y, i, q := RGBToYIQ(resampled)

	planes := [Channels]*ChannelPlane{y, i, q}
	var sig Signature
	for c := 0; c < Channels; c++ {
		HaarTransform2D(planes[c])
		sig.Avglf[c] = planes[c].data[0] / (256.0 * 128.0)
		sig.Coefs[c] = SelectLargest(planes[c])
	}
	return &sig, nil
}

// IsGrayscale reports whether the chrominance channels are negligible, per
// the |avglf[1]| + |avglf[2]| < 0.006 rule.
func (s *Signature) IsGrayscale() bool {
	i, q := s.Avglf[1], s.Avglf[2]
	if i < 0 {
		i = -i
	}
	if q < 0 {
		q = -q
	}
	return i+q < grayscaleThreshold
}

// NumColors returns 1 for a grayscale signature, 3 otherwise.
func (s *Signature) NumColors() int {
	if s.IsGrayscale() {
		return 1
	}
	return Channels
}

// DecodeError indicates the image bytes could not be parsed into a raster.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("signature: decode error: %s", e.Reason)
}
