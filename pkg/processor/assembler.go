package processor

import (
	"strings"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/vecmath"
)

// Assembly is the output of Assemble.
type Assembly struct {
	Chunks []models.Chunk
	// Degenerate counts chunks whose mean vector had zero norm and was
	// therefore stored unnormalized.
	Degenerate int
}

// Assemble joins each range's sentences with single spaces and derives the
// chunk embedding as the unit-length mean of the range's sentence vectors.
// Ranges whose text is empty are skipped; chunk indices stay dense.
func Assemble(sentences []string, vectors [][]float32, ranges []Range) Assembly {
	var out Assembly
	for _, r := range ranges {
		text := JoinSentences(sentences, r)
		if text == "" {
			continue
		}
		embedding, ok := vecmath.MeanNormalized(vectors[r.Start:r.End])
		if !ok {
			out.Degenerate++
		}
		out.Chunks = append(out.Chunks, models.Chunk{
			ChunkIndex: len(out.Chunks),
			Content:    text,
			Embedding:  embedding,
		})
	}
	return out
}

// JoinSentences returns the sentences of r joined by single spaces.
func JoinSentences(sentences []string, r Range) string {
	return strings.TrimSpace(strings.Join(sentences[r.Start:r.End], " "))
}
