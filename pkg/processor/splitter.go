package processor

import (
	"math"
	"sort"

	"github.com/xhad/docspace/pkg/vecmath"
)

// Divergence is the topic-change score at a candidate boundary.
type Divergence struct {
	Index int
	Score float64
}

// DivergenceScores compares the mean of the window/2 sentence vectors before
// each index with the mean of the window/2 vectors from it onward and scores
// 1 - cosine. Indices run over [h, n-h) with h = window/2.
func DivergenceScores(vectors [][]float32, window int) []Divergence {
	half := window / 2
	n := len(vectors)
	if half < 1 || n < 2*half {
		return nil
	}

	scores := make([]Divergence, 0, n-2*half)
	for i := half; i < n-half; i++ {
		left, _ := vecmath.MeanNormalized(vectors[i-half : i])
		right, _ := vecmath.MeanNormalized(vectors[i : i+half])
		scores = append(scores, Divergence{Index: i, Score: 1 - vecmath.Dot(left, right)})
	}
	return scores
}

// FindSplitPoints returns, ascending, every index whose divergence is at or
// above the given percentile of the document's own divergence distribution.
// Documents with fewer than window+2 sentences are never split.
func FindSplitPoints(vectors [][]float32, window int, percentile float64) []int {
	if len(vectors) < window+2 {
		return nil
	}
	scores := DivergenceScores(vectors, window)
	if len(scores) == 0 {
		return nil
	}

	threshold := percentileValue(scores, percentile)

	var points []int
	for _, s := range scores {
		if s.Score >= threshold {
			points = append(points, s.Index)
		}
	}
	return points
}

// percentileValue picks the element at rank floor(p*(len-1)) of the sorted scores.
func percentileValue(scores []Divergence, p float64) float64 {
	sorted := make([]float64, len(scores))
	for i, s := range scores {
		sorted[i] = s.Score
	}
	sort.Float64s(sorted)

	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Range is the half-open sentence interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of sentences in r.
func (r Range) Len() int { return r.End - r.Start }

// BuildRanges turns split points into ranges that partition [0, sentenceCount).
//
// Ranges shorter than minSentences are folded into the range before them. The
// check uses the length at the original boundaries and only looks backward,
// so a short first range stays short. Ranges longer than maxSentences are cut
// into maxSentences-sized pieces, the last one possibly shorter.
func BuildRanges(sentenceCount int, splitPoints []int, minSentences, maxSentences int) []Range {
	if sentenceCount <= 0 {
		return nil
	}

	boundaries := []int{0}
	for _, p := range splitPoints {
		if p > 0 && p < sentenceCount {
			boundaries = append(boundaries, p)
		}
	}
	boundaries = append(boundaries, sentenceCount)
	sort.Ints(boundaries)
	boundaries = dedupSorted(boundaries)

	merged := make([]Range, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		r := Range{Start: boundaries[i], End: boundaries[i+1]}
		if len(merged) > 0 && r.Len() < minSentences {
			merged[len(merged)-1].End = r.End
			continue
		}
		merged = append(merged, r)
	}

	if maxSentences < 1 {
		return merged
	}

	ranges := make([]Range, 0, len(merged))
	for _, r := range merged {
		for s := r.Start; s < r.End; s += maxSentences {
			e := s + maxSentences
			if e > r.End {
				e = r.End
			}
			ranges = append(ranges, Range{Start: s, End: e})
		}
	}
	return ranges
}

func dedupSorted(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}
