package domain

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0.0 when either vector is empty, lengths mismatch, or either
// norm is zero, guarding against undefined division.
// Otherwise the result is in [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MeanCentroid computes the arithmetic mean of equal-length vectors.
// Returns nil for empty input. Vectors whose length differs from the
// first are skipped rather than corrupting the mean.
func MeanCentroid(vectors [][]float32) []float32 {
	var used [][]float32
	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if len(used) > 0 && len(v) != len(used[0]) {
			continue
		}
		used = append(used, v)
	}
	if len(used) == 0 {
		return nil
	}

	dim := len(used[0])
	sum := make([]float64, dim)
	for _, v := range used {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	centroid := make([]float32, dim)
	n := float64(len(used))
	for i := range sum {
		centroid[i] = float32(sum[i] / n)
	}
	return centroid
}

// WeightedCentroid computes a weighted mean of vectors. Weights are
// normalised by the sum of their absolute values, preserving sign so
// negative weights (downvotes) cancel rather than vanish.
// Returns nil when inputs are empty, lengths mismatch, or the total
// absolute weight is zero.
func WeightedCentroid(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	var totalAbs float64
	for _, w := range weights {
		totalAbs += math.Abs(w)
	}
	if totalAbs == 0 {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil
		}
		w := weights[i] / totalAbs
		for j, x := range v {
			sum[j] += float64(x) * w
		}
	}

	centroid := make([]float32, dim)
	for i := range sum {
		centroid[i] = float32(sum[i])
	}
	return centroid
}
