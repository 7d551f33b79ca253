package store

import (
	"encoding/binary"
	"math"
)

// encodeVector packs v as little-endian float32s. Empty vectors encode to nil
// so they are stored as NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	blob := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}
	return blob
}

func decodeVector(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
