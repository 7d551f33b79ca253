package processor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docspace/pkg/processor"
)

var (
	topicA = []float32{1, 0, 0}
	topicB = []float32{0, 1, 0}
)

// twoTopics returns n vectors, topicA before switchAt and topicB after.
func twoTopics(n, switchAt int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		if i < switchAt {
			vecs[i] = topicA
		} else {
			vecs[i] = topicB
		}
	}
	return vecs
}

func TestDivergenceScores_Window(t *testing.T) {
	scores := processor.DivergenceScores(twoTopics(20, 10), 8)
	require.Len(t, scores, 12)
	assert.Equal(t, 4, scores[0].Index)
	assert.Equal(t, 15, scores[len(scores)-1].Index)

	byIndex := map[int]float64{}
	for _, s := range scores {
		byIndex[s.Index] = s.Score
	}
	assert.InDelta(t, 1.0, byIndex[10], 1e-6)
	assert.InDelta(t, 0.0, byIndex[4], 1e-6)
	assert.InDelta(t, byIndex[9], byIndex[11], 1e-9)
}

func TestFindSplitPoints_PercentileThreshold(t *testing.T) {
	// Twelve scores; the threshold is the sorted value at floor(0.85*11) = 9,
	// which is the shared score of indices 9 and 11.
	points := processor.FindSplitPoints(twoTopics(20, 10), 8, 0.85)
	assert.Equal(t, []int{9, 10, 11}, points)
}

func TestFindSplitPoints_TooFewSentences(t *testing.T) {
	assert.Empty(t, processor.FindSplitPoints(twoTopics(2, 1), 8, 0.85))
	assert.Empty(t, processor.FindSplitPoints(twoTopics(9, 5), 8, 0.85))
}

func TestFindSplitPoints_UniformDocument(t *testing.T) {
	// every score is zero, so every index reaches the threshold
	points := processor.FindSplitPoints(twoTopics(12, 12), 8, 0.85)
	assert.Equal(t, []int{4, 5, 6, 7}, points)
}

func TestBuildRanges(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		points   []int
		min, max int
		want     []processor.Range
	}{
		{
			name: "no change needed", count: 10, points: []int{4}, min: 3, max: 20,
			want: []processor.Range{{0, 4}, {4, 10}},
		},
		{
			name: "short first range is kept", count: 10, points: []int{1}, min: 3, max: 20,
			want: []processor.Range{{0, 1}, {1, 10}},
		},
		{
			name: "short ranges merge backward", count: 20, points: []int{9, 10, 11}, min: 3, max: 20,
			want: []processor.Range{{0, 11}, {11, 20}},
		},
		{
			name: "short last range merges", count: 10, points: []int{8}, min: 3, max: 20,
			want: []processor.Range{{0, 10}},
		},
		{
			name: "long range is subdivided", count: 45, points: nil, min: 3, max: 20,
			want: []processor.Range{{0, 20}, {20, 40}, {40, 45}},
		},
		{
			name: "out of range and duplicate points ignored", count: 10, points: []int{0, 5, 5, 10, 12, -1}, min: 3, max: 20,
			want: []processor.Range{{0, 5}, {5, 10}},
		},
		{
			name: "no sentences", count: 0, points: []int{1}, min: 3, max: 20,
			want: nil,
		},
		{
			name: "two sentences single range", count: 2, points: nil, min: 3, max: 20,
			want: []processor.Range{{0, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processor.BuildRanges(tt.count, tt.points, tt.min, tt.max)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRanges_PartitionAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		count := 1 + rng.Intn(80)
		var points []int
		for k := rng.Intn(10); k > 0; k-- {
			points = append(points, rng.Intn(count+4)-2)
		}
		minS := 1 + rng.Intn(5)
		maxS := minS + rng.Intn(20)

		ranges := processor.BuildRanges(count, points, minS, maxS)
		again := processor.BuildRanges(count, points, minS, maxS)
		require.Equal(t, ranges, again)

		require.NotEmpty(t, ranges)
		assert.Equal(t, 0, ranges[0].Start)
		assert.Equal(t, count, ranges[len(ranges)-1].End)
		for i, r := range ranges {
			assert.Less(t, r.Start, r.End)
			assert.LessOrEqual(t, r.Len(), maxS)
			if i > 0 {
				assert.Equal(t, ranges[i-1].End, r.Start)
			}
		}
	}
}
