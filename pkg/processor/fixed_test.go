package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docspace/pkg/processor"
)

func TestFixedChunks_ShortText(t *testing.T) {
	assert.Equal(t, []string{"short text"}, processor.FixedChunks("  short text \r\n", 1800, 200))
	assert.Nil(t, processor.FixedChunks("   ", 1800, 200))
}

func TestFixedChunks_SplitsOnWords(t *testing.T) {
	text := strings.Repeat("word ", 1000) // 5000 characters
	chunks := processor.FixedChunks(text, 1000, 100)
	require.Greater(t, len(chunks), 4)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
		assert.False(t, strings.HasPrefix(c, "ord"), "chunk starts mid-word: %q", c[:10])
	}
}

func TestFixedChunks_ClampsSize(t *testing.T) {
	text := strings.Repeat("abcd ", 200) // 1000 characters
	chunks := processor.FixedChunks(text, 10, 0)
	// a 10-character request is raised to the 400 minimum
	require.Len(t, chunks, 3)
	assert.LessOrEqual(t, len(chunks[0]), processor.MinFixedChunkSize)
}

func TestFixedChunks_UnbrokenTextTerminates(t *testing.T) {
	text := strings.Repeat("x", 3000)
	chunks := processor.FixedChunks(text, 1000, 500)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}
