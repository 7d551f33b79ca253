// Package processor turns document text into embedded chunks. The semantic
// strategy splits where the topic of neighbouring sentences drifts; the fixed
// strategy cuts overlapping character windows.
package processor

import (
	"context"
	"fmt"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/vecmath"
)

// Chunking strategies.
const (
	StrategySemantic = "semantic"
	StrategyFixed    = "fixed"
)

type ProcessorConfig struct {
	Strategy     string
	Window       int
	Percentile   float64
	MinSentences int
	MaxSentences int
	ChunkSize    int
	ChunkOverlap int
}

type Processor struct {
	config    ProcessorConfig
	segmenter *Segmenter
	embedder  types.Embedder
}

// Result describes one chunking run.
type Result struct {
	Chunks []models.Chunk
	// Embedding is the document-level vector: the unit mean of every
	// sentence vector, or the whole-text vector when the fallback chunk was used.
	Embedding   []float32
	Sentences   int
	SplitPoints []int
	Ranges      []Range
	Degenerate  int
	Fallback    bool
}

func NewWithConfig(config ProcessorConfig, embedder types.Embedder) *Processor {
	if config.Strategy == "" {
		config.Strategy = StrategySemantic
	}
	if config.Window == 0 {
		config.Window = 8
	}
	if config.Percentile == 0 {
		config.Percentile = 0.85
	}
	if config.MinSentences == 0 {
		config.MinSentences = 3
	}
	if config.MaxSentences == 0 {
		config.MaxSentences = 20
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = 1800
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}

	return &Processor{
		config:    config,
		segmenter: NewSegmenter(),
		embedder:  embedder,
	}
}

// Config returns the effective configuration.
func (p *Processor) Config() ProcessorConfig { return p.config }

// Process chunks text and embeds every chunk. Sentence vectors are fetched in
// a single batch call; any gateway failure aborts the run with no output.
func (p *Processor) Process(ctx context.Context, text string) (*Result, error) {
	text = NormalizeText(text)
	if text == "" {
		return nil, types.InvalidInput("text is empty")
	}

	var (
		res *Result
		err error
	)
	switch p.config.Strategy {
	case StrategyFixed:
		res, err = p.processFixed(ctx, text)
	default:
		res, err = p.processSemantic(ctx, text)
	}
	if err != nil {
		return nil, err
	}

	if len(res.Chunks) == 0 {
		if err := p.fallback(ctx, text, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *Processor) processSemantic(ctx context.Context, text string) (*Result, error) {
	sentences := p.segmenter.Split(text)
	res := &Result{Sentences: len(sentences)}
	if len(sentences) == 0 {
		return res, nil
	}

	vectors, err := p.embedBatch(ctx, sentences)
	if err != nil {
		return nil, err
	}

	res.SplitPoints = FindSplitPoints(vectors, p.config.Window, p.config.Percentile)
	res.Ranges = BuildRanges(len(sentences), res.SplitPoints, p.config.MinSentences, p.config.MaxSentences)

	assembly := Assemble(sentences, vectors, res.Ranges)
	res.Chunks = assembly.Chunks
	res.Degenerate = assembly.Degenerate
	res.Embedding, _ = vecmath.MeanNormalized(vectors)
	return res, nil
}

func (p *Processor) processFixed(ctx context.Context, text string) (*Result, error) {
	pieces := FixedChunks(text, p.config.ChunkSize, p.config.ChunkOverlap)
	res := &Result{}
	if len(pieces) == 0 {
		return res, nil
	}

	vectors, err := p.embedBatch(ctx, pieces)
	if err != nil {
		return nil, err
	}

	for i, piece := range pieces {
		if !vecmath.Normalize(vectors[i]) {
			res.Degenerate++
		}
		res.Chunks = append(res.Chunks, models.Chunk{
			ChunkIndex: i,
			Content:    piece,
			Embedding:  vectors[i],
		})
	}
	res.Embedding, _ = vecmath.MeanNormalized(vectors)
	return res, nil
}

// fallback stores the whole text as a single chunk with a fresh embedding.
func (p *Processor) fallback(ctx context.Context, text string, res *Result) error {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return types.NewGatewayError("embed", fmt.Errorf("empty embedding"))
	}
	res.Fallback = true
	res.Chunks = []models.Chunk{{ChunkIndex: 0, Content: text, Embedding: vec}}
	res.Embedding = vec
	return nil
}

// embedBatch fetches one vector per text and checks the response shape.
func (p *Processor) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, types.NewGatewayError("embed batch",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, types.NewGatewayError("embed batch",
				fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim))
		}
	}
	return vectors, nil
}
