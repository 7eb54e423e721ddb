// Package index implements the in-memory inverted bucket index ("ImgBin")
// and the top-K similarity scoring engine described by the Jacobs/
// Finkelstein/Salesin multiresolution image querying paper: images are
// indexed by the linearized positions of their 40 largest-magnitude Haar
// coefficients per channel, and a query signature is scored against every
// live image in a single pass over its own 120 coefficient positions.
package index

import (
	"fmt"

	"github.com/cwbudde/goiqdb/internal/signature"
)

// growChunk is the minimum number of tombstone slots added whenever the
// info array must grow to accommodate a new internal id.
const growChunk = 5000

// ImageInfo is the per-indexed-image record held in the dense info array.
type ImageInfo struct {
	PostID uint32
	Avgl   [signature.Channels]float32
}

// Deleted reports whether this slot has been tombstoned (avgl[0] == 0.0).
// An all-black image does average to exactly 0; internal/iqdb clamps that
// value away from zero before indexing so it is not read as a tombstone.
func (i ImageInfo) Deleted() bool {
	return i.Avgl[0] == 0.0
}

// Bin is the inverted bucket table plus the dense per-image info array. It
// is not safe for concurrent use by itself; callers (internal/iqdb) serialize
// access with a single lock, matching the "one owned value behind one
// shared handle" design.
type Bin struct {
	buckets [signature.Channels][2][signature.PixelsSq][]uint32
	info    []ImageInfo
}

// New constructs an empty inverted index.
func New() *Bin {
	return &Bin{}
}

// IndexCorruptionError marks a programming-error precondition violation in
// Remove: the signature passed does not match what was indexed for the id.
type IndexCorruptionError struct {
	IqdbID uint32
}

func (e *IndexCorruptionError) Error() string {
	return fmt.Sprintf("index: corruption: id %d has no matching bucket entry", e.IqdbID)
}

func bucketSign(coef int16) int {
	if coef < 0 {
		return 1
	}
	return 0
}

func abs16(v int16) int {
	if v < 0 {
		return int(-v)
	}
	return int(v)
}

// AddInMemory indexes sig under iqdbID, growing the info array if needed and
// recording postID and the signature's luminance averages. It must not be
// called twice for the same iqdbID without an intervening Remove.
func (b *Bin) AddInMemory(iqdbID, postID uint32, sig *signature.Signature) {
	if int(iqdbID) >= len(b.info) {
		grown := make([]ImageInfo, iqdbID+growChunk)
		copy(grown, b.info)
		b.info = grown
	}

	numColors := sig.NumColors()
	for c := 0; c < numColors; c++ {
		for _, coef := range sig.Coefs[c] {
			sign := bucketSign(coef)
			pos := abs16(coef)
			b.buckets[c][sign][pos] = append(b.buckets[c][sign][pos], iqdbID)
		}
	}

	b.info[iqdbID] = ImageInfo{PostID: postID, Avgl: sig.Avglf}
}

// Remove purges every bucket entry sig touches for iqdbID and tombstones its
// info slot. sig must be the exact signature previously added for iqdbID; if
// any of its coefficient positions has no matching bucket entry for iqdbID,
// that position is skipped and Remove returns an *IndexCorruptionError after
// tombstoning the info slot, since the remaining positions still need
// purging and the row must not be left live in the index either way.
func (b *Bin) Remove(iqdbID uint32, sig *signature.Signature) error {
	var corrupt bool
	numColors := sig.NumColors()
	for c := 0; c < numColors; c++ {
		for _, coef := range sig.Coefs[c] {
			sign := bucketSign(coef)
			pos := abs16(coef)
			bucket := b.buckets[c][sign][pos]
			found := false
			for i, id := range bucket {
				if id == iqdbID {
					bucket[i] = bucket[len(bucket)-1]
					b.buckets[c][sign][pos] = bucket[:len(bucket)-1]
					found = true
					break
				}
			}
			if !found {
				corrupt = true
			}
		}
	}
	if int(iqdbID) < len(b.info) {
		b.info[iqdbID].Avgl[0] = 0.0
	}
	if corrupt {
		return &IndexCorruptionError{IqdbID: iqdbID}
	}
	return nil
}

// Len returns the current size of the info array (including tombstones).
func (b *Bin) Len() int {
	return len(b.info)
}
