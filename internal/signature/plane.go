package signature

// ChannelPlane is a single color channel of a resampled image, stored as a
// flat, row-major buffer: data[y*Pixels+x]. Kept as a flat fixed-size array
// rather than a 2-D one so the Haar butterfly loops can address rows and columns with
// plain strided indexing, the way a codec would walk a raw pixel buffer.
type ChannelPlane struct {
	data [PixelsSq]float32
}

// At returns the value at linear position y*Pixels+x.
func (p *ChannelPlane) At(x, y int) float32 {
	return p.data[y*Pixels+x]
}

// Set stores the value at linear position y*Pixels+x.
func (p *ChannelPlane) Set(x, y int, v float32) {
	p.data[y*Pixels+x] = v
}
