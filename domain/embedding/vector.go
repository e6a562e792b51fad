package embedding

import "math"

// Normalize scales v to unit Euclidean norm in place. Zero vectors are
// left unchanged (there is no direction to preserve).
func Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

// NormalizeAll applies Normalize to every vector in vecs.
func NormalizeAll(vecs [][]float64) {
	for _, v := range vecs {
		Normalize(v)
	}
}
