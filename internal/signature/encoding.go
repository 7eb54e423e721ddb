package signature

import (
	"encoding/binary"
	"fmt"
)

// EncodedCoefLen is the byte length of one channel's encoded coefficient blob.
const EncodedCoefLen = Coefs * 2

// EncodeCoefs serializes a 40-element signed coefficient array to a
// little-endian blob. The encoding is a fixed reversible layout chosen to
// hold invariant per the catalog's durability contract; round-tripping
// through DecodeCoefs reproduces the input bit-exactly.
func EncodeCoefs(coefs [Coefs]int16) []byte {
	buf := make([]byte, EncodedCoefLen)
	for i, v := range coefs {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// DecodeCoefs reverses EncodeCoefs.
func DecodeCoefs(blob []byte) ([Coefs]int16, error) {
	var out [Coefs]int16
	if len(blob) != EncodedCoefLen {
		return out, fmt.Errorf("signature: coefficient blob has length %d, want %d", len(blob), EncodedCoefLen)
	}
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(blob[i*2:]))
	}
	return out, nil
}
