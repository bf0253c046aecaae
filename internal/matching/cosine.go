// Package matching scores resumes against job postings by cosine similarity
// of their precomputed embeddings.
package matching

import "math"

// Cosine returns dot(a,b) / (|a|*|b|), accumulated in float64. It returns 0
// when either vector is empty, the lengths differ, or either norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, aa, bb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aa += x * x
		bb += y * y
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return dot / (math.Sqrt(aa) * math.Sqrt(bb))
}

// Score scales a similarity to a 0-100 percentage with two decimals.
// Negative similarities score 0.
func Score(sim float64) float64 {
	s := math.Round(sim*10000) / 100
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	}
	return s
}
