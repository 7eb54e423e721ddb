package signature

import "container/heap"

// SelectLargest finds the Coefs (40) positions of largest-magnitude
// coefficient in p, excluding position 0 (which holds the DC average and is
// never selected), and returns them as signed 16-bit position codes: the
// absolute value is the linear index, the sign matches the coefficient's
// sign. Uses a bounded min-heap keyed by magnitude, giving
// O(PixelsSq * log Coefs) complexity instead of a full sort.
func SelectLargest(p *ChannelPlane) [Coefs]int16 {
	h := make(coefHeap, 0, Coefs)

	for pos := 1; pos < PixelsSq; pos++ {
		v := p.data[pos]
		mag := v
		if mag < 0 {
			mag = -mag
		}

		if len(h) < Coefs {
			heap.Push(&h, coefEntry{mag: mag, pos: pos, neg: v < 0})
			continue
		}
		if mag > h[0].mag {
			h[0] = coefEntry{mag: mag, pos: pos, neg: v < 0}
			heap.Fix(&h, 0)
		}
	}

	var out [Coefs]int16
	for i, e := range h {
		code := int16(e.pos)
		if e.neg {
			code = -code
		}
		out[i] = code
	}
	return out
}

type coefEntry struct {
	mag float32
	pos int
	neg bool
}

// coefHeap is a min-heap ordered by magnitude, so the smallest of the
// currently-retained top-Coefs entries sits at the root and can be evicted
// in O(log Coefs) when a larger coefficient is found.
type coefHeap []coefEntry

func (h coefHeap) Len() int            { return len(h) }
func (h coefHeap) Less(i, j int) bool  { return h[i].mag < h[j].mag }
func (h coefHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *coefHeap) Push(x interface{}) { *h = append(*h, x.(coefEntry)) }
func (h *coefHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
