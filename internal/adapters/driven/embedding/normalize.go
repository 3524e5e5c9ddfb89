// Package embedding holds vector helpers shared by the embedding adapters.
package embedding

import "math"

// L2Normalize scales the vector to unit length in place and returns it.
// Providers disagree on whether their output is already normalized; the
// store's cosine and inner-product ranking both assume unit vectors, so
// every adapter normalizes before returning.
func L2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	if math.Abs(norm-1) < 1e-6 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
