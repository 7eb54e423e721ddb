package index

import (
	"container/heap"
	"sort"

	"github.com/cwbudde/goiqdb/internal/signature"
)

// Result is one ranked match: a post id and its score (lower = more similar).
type Result struct {
	PostID uint32
	Score  float32
}

// Query scores every live image against qs and returns up to k results
// ordered ascending by score (ties broken ascending by PostID).
//
// Scoring is a two-pass single sweep over the query's own coefficients: a
// luminance "DC distance" base term for every image, then a bucket-driven
// discount that only touches images sharing one of the query's 3*40
// coefficient positions. This keeps per-query cost proportional to the
// number of live images plus the population of the at-most-120 touched
// buckets, not to the total bucket count.
func (b *Bin) Query(qs *signature.Signature, k int) []Result {
	n := len(b.info)
	if k <= 0 || n == 0 {
		return nil
	}

	numColors := qs.NumColors()

	scores := make([]float32, n)
	for i, info := range b.info {
		var s float32
		for c := 0; c < numColors; c++ {
			d := info.Avgl[c] - qs.Avglf[c]
			if d < 0 {
				d = -d
			}
			s += weights[0][c] * d
		}
		scores[i] = s
	}

	for c := 0; c < numColors; c++ {
		for _, coef := range qs.Coefs[c] {
			pos := abs16(coef)
			w := bin[pos]
			weight := weights[w][c]
			sign := bucketSign(coef)
			for _, j := range b.buckets[c][sign][pos] {
				scores[j] -= weight
			}
		}
	}

	h := make(resultHeap, 0, k)
	for i := 0; i < n; i++ {
		if b.info[i].Deleted() {
			continue
		}
		cand := Result{PostID: b.info[i].PostID, Score: scores[i]}

		if len(h) < k {
			heap.Push(&h, cand)
			continue
		}
		if worse(h[0], cand) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	out := make([]Result, len(h))
	copy(out, h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].PostID < out[j].PostID
	})
	return out
}

// worse reports whether root (the current worst-of-top-K) should be evicted
// in favor of cand. Strict comparison means an exact tie keeps whichever
// entry was inserted first, preserving ascending-id determinism for
// identical-score duplicates.
func worse(root, cand Result) bool {
	return cand.Score < root.Score
}

// resultHeap is a bounded max-heap ordered so the current worst-of-top-K
// result sits at the root and can be evicted in O(log K).
type resultHeap []Result

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	return h[i].PostID > h[j].PostID
}
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
