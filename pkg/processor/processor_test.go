package processor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/processor"
	"github.com/xhad/docspace/pkg/vecmath"
)

// topicEmbedder maps sentences about cats to one axis and everything else to another.
type topicEmbedder struct {
	batchCalls int
	embedCalls int
	batchErr   error
	short      bool
}

func (e *topicEmbedder) vector(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "cat") {
		return []float32{1, 0, 0}
	}
	return []float32{0, 1, 0}
}

func (e *topicEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.embedCalls++
	return e.vector(text), nil
}

func (e *topicEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, e.vector(t))
	}
	if e.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func twoTopicText() string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "The cat number %d sleeps. ", i)
	}
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Rocket stage %d ignites. ", i)
	}
	return b.String()
}

func TestProcessor_SemanticSplitsOnTopicChange(t *testing.T) {
	emb := &topicEmbedder{}
	p := processor.NewWithConfig(processor.ProcessorConfig{}, emb)

	res, err := p.Process(context.Background(), twoTopicText())
	require.NoError(t, err)

	assert.Equal(t, 1, emb.batchCalls)
	assert.Zero(t, emb.embedCalls)
	assert.Equal(t, 20, res.Sentences)
	assert.Equal(t, []int{9, 10, 11}, res.SplitPoints)
	require.Len(t, res.Chunks, 2)
	assert.False(t, res.Fallback)

	assert.True(t, strings.HasPrefix(res.Chunks[0].Content, "The cat number 0 sleeps."))
	assert.True(t, strings.HasSuffix(res.Chunks[0].Content, "Rocket stage 0 ignites."))
	assert.True(t, strings.HasPrefix(res.Chunks[1].Content, "Rocket stage 1 ignites."))
	for i, c := range res.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.True(t, vecmath.IsUnit(c.Embedding, 1e-5))
	}
	assert.True(t, vecmath.IsUnit(res.Embedding, 1e-5))
}

func TestProcessor_ShortTextIsOneChunk(t *testing.T) {
	emb := &topicEmbedder{}
	p := processor.NewWithConfig(processor.ProcessorConfig{}, emb)

	res, err := p.Process(context.Background(), "A cat. Another cat.")
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "A cat. Another cat.", res.Chunks[0].Content)
	assert.Empty(t, res.SplitPoints)
}

func TestProcessor_EmptyText(t *testing.T) {
	emb := &topicEmbedder{}
	p := processor.NewWithConfig(processor.ProcessorConfig{}, emb)

	_, err := p.Process(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Zero(t, emb.batchCalls)
}

func TestProcessor_GatewayFailure(t *testing.T) {
	emb := &topicEmbedder{batchErr: types.NewGatewayError("embed batch", errors.New("connection refused"))}
	p := processor.NewWithConfig(processor.ProcessorConfig{}, emb)

	res, err := p.Process(context.Background(), twoTopicText())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrGateway)
	assert.True(t, types.IsRetryable(err))
}

func TestProcessor_BatchCountMismatch(t *testing.T) {
	emb := &topicEmbedder{short: true}
	p := processor.NewWithConfig(processor.ProcessorConfig{}, emb)

	_, err := p.Process(context.Background(), twoTopicText())
	assert.ErrorIs(t, err, types.ErrGateway)
}

func TestProcessor_FixedStrategy(t *testing.T) {
	emb := &topicEmbedder{}
	p := processor.NewWithConfig(processor.ProcessorConfig{
		Strategy:     processor.StrategyFixed,
		ChunkSize:    400,
		ChunkOverlap: 50,
	}, emb)

	text := strings.Repeat("The cat sat on the mat. ", 60)
	res, err := p.Process(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, 1, emb.batchCalls)
	assert.Greater(t, len(res.Chunks), 2)
	for i, c := range res.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.LessOrEqual(t, len([]rune(c.Content)), 400)
		assert.True(t, vecmath.IsUnit(c.Embedding, 1e-5))
	}
}

func TestNewWithConfig_Defaults(t *testing.T) {
	cfg := processor.NewWithConfig(processor.ProcessorConfig{}, &topicEmbedder{}).Config()
	assert.Equal(t, processor.StrategySemantic, cfg.Strategy)
	assert.Equal(t, 8, cfg.Window)
	assert.Equal(t, 0.85, cfg.Percentile)
	assert.Equal(t, 3, cfg.MinSentences)
	assert.Equal(t, 20, cfg.MaxSentences)
	assert.Equal(t, 1800, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
}
