package catalog

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/goiqdb/internal/signature"
)

// Each row is a fixed-size binary record so any id's offset is computable
// without an index: headerSize + id*recordSize. Layout:
//
//	byte 0        deleted flag (0 live, 1 tombstoned)
//	bytes 1..5    postID, little-endian uint32
//	bytes 5..17   avglf[3], little-endian float32 each
//	bytes 17..257 coefs[3][40], little-endian int16 each
const recordSize = 1 + 4 + signature.Channels*4 + signature.Channels*signature.Coefs*2

const (
	deletedOff = 0
	postIDOff  = 1
	avglfOff   = postIDOff + 4
	coefsOff   = avglfOff + signature.Channels*4
)

func encodeRecord(deleted bool, postID uint32, sig *signature.Signature) []byte {
	buf := make([]byte, recordSize)
	if deleted {
		buf[deletedOff] = 1
	}
	binary.LittleEndian.PutUint32(buf[postIDOff:], postID)

	off := avglfOff
	for c := 0; c < signature.Channels; c++ {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(sig.Avglf[c]))
		off += 4
	}

	off = coefsOff
	for c := 0; c < signature.Channels; c++ {
		for _, coef := range sig.Coefs[c] {
			binary.LittleEndian.PutUint16(buf[off:], uint16(coef))
			off += 2
		}
	}
	return buf
}

func decodeRecord(buf []byte) (deleted bool, postID uint32, sig *signature.Signature) {
	deleted = buf[deletedOff] != 0
	postID = binary.LittleEndian.Uint32(buf[postIDOff:])

	sig = &signature.Signature{}
	off := avglfOff
	for c := 0; c < signature.Channels; c++ {
		sig.Avglf[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}

	off = coefsOff
	for c := 0; c < signature.Channels; c++ {
		for i := range sig.Coefs[c] {
			sig.Coefs[c][i] = int16(binary.LittleEndian.Uint16(buf[off:]))
			off += 2
		}
	}
	return deleted, postID, sig
}
