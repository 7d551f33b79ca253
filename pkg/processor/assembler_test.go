package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docspace/pkg/processor"
	"github.com/xhad/docspace/pkg/vecmath"
)

func TestAssemble(t *testing.T) {
	sentences := []string{"A one.", "A two.", "B one.", "B two."}
	vectors := [][]float32{{1, 0}, {0.8, 0.6}, {0, 1}, {0.6, 0.8}}
	ranges := []processor.Range{{0, 2}, {2, 4}}

	out := processor.Assemble(sentences, vectors, ranges)
	require.Len(t, out.Chunks, 2)
	assert.Zero(t, out.Degenerate)

	assert.Equal(t, "A one. A two.", out.Chunks[0].Content)
	assert.Equal(t, "B one. B two.", out.Chunks[1].Content)
	for i, c := range out.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.True(t, vecmath.IsUnit(c.Embedding, 1e-5))
	}
	assert.Greater(t, out.Chunks[0].Embedding[0], out.Chunks[0].Embedding[1])
}

func TestAssemble_SkipsEmptyAndKeepsIndicesDense(t *testing.T) {
	sentences := []string{"", " ", "Text."}
	vectors := [][]float32{{1, 0}, {1, 0}, {0, 1}}
	ranges := []processor.Range{{0, 2}, {2, 3}}

	out := processor.Assemble(sentences, vectors, ranges)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, 0, out.Chunks[0].ChunkIndex)
	assert.Equal(t, "Text.", out.Chunks[0].Content)
}

func TestAssemble_ZeroNormIsLeftUnnormalized(t *testing.T) {
	sentences := []string{"Up.", "Down."}
	vectors := [][]float32{{1, 0}, {-1, 0}}

	out := processor.Assemble(sentences, vectors, []processor.Range{{0, 2}})
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, 1, out.Degenerate)
	assert.Equal(t, []float32{0, 0}, out.Chunks[0].Embedding)
}
