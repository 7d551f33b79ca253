// Package vecmath holds the small amount of vector arithmetic the chunker and
// ranker share. All vectors produced by the embedding gateway are unit length,
// so Dot doubles as cosine similarity.
package vecmath

import "math"

// Dot returns the inner product over the shared prefix of a and b.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 length of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalize scales v to unit length in place. A zero vector is left untouched
// and reported with ok == false.
func Normalize(v []float32) (ok bool) {
	n := Norm(v)
	if n == 0 {
		return false
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return true
}

// Mean returns the component-wise mean of vecs. The dimension is taken from
// the first vector; nil is returned for an empty input.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	d := len(vecs[0])
	acc := make([]float64, d)
	for _, v := range vecs {
		for j := 0; j < d && j < len(v); j++ {
			acc[j] += float64(v[j])
		}
	}
	m := make([]float32, d)
	count := float64(len(vecs))
	for j := range acc {
		m[j] = float32(acc[j] / count)
	}
	return m
}

// MeanNormalized returns the unit-length mean of vecs. ok is false when the
// mean has zero norm, in which case the raw mean is returned.
func MeanNormalized(vecs [][]float32) (mean []float32, ok bool) {
	mean = Mean(vecs)
	if mean == nil {
		return nil, false
	}
	return mean, Normalize(mean)
}

// IsUnit reports whether v has length 1 within tol.
func IsUnit(v []float32, tol float64) bool {
	return math.Abs(Norm(v)-1) <= tol
}
