package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorCodec(t *testing.T) {
	v := []float32{0, -1.5, 3.25, float32(math.Inf(1)), math.SmallestNonzeroFloat32}
	blob := encodeVector(v)
	assert.Len(t, blob, len(v)*4)
	assert.Equal(t, v, decodeVector(blob))

	// little-endian 1.0
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, encodeVector([]float32{1}))

	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector(nil))
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "héllo", sanitizeUTF8("héllo"))
	assert.Equal(t, "ab", sanitizeUTF8("a\xffb"))
}
