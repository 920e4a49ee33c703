package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity_Identical(t *testing.T) {
	v := []float32{0.5, 0.5, 0.7}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-6)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-6)
}

func TestCosineSimilarity_Guards(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1}))
	// Zero norm
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	a := []float32{0.3, -0.8, 0.2, 0.9}
	b := []float32{-0.1, 0.4, 0.6, -0.5}
	got := CosineSimilarity(a, b)
	assert.GreaterOrEqual(t, got, -1.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestMeanCentroid(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{3, 4, 5},
	}
	centroid := MeanCentroid(vectors)
	require.Len(t, centroid, 3)
	assert.InDelta(t, 2.0, centroid[0], 1e-6)
	assert.InDelta(t, 3.0, centroid[1], 1e-6)
	assert.InDelta(t, 4.0, centroid[2], 1e-6)
}

func TestMeanCentroid_Empty(t *testing.T) {
	assert.Nil(t, MeanCentroid(nil))
	assert.Nil(t, MeanCentroid([][]float32{}))
	assert.Nil(t, MeanCentroid([][]float32{{}}))
}

func TestMeanCentroid_SkipsMismatchedLengths(t *testing.T) {
	vectors := [][]float32{
		{2, 4},
		{1, 2, 3},
		{4, 6},
	}
	centroid := MeanCentroid(vectors)
	require.Len(t, centroid, 2)
	assert.InDelta(t, 3.0, centroid[0], 1e-6)
	assert.InDelta(t, 5.0, centroid[1], 1e-6)
}

func TestWeightedCentroid(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0, 1},
	}
	weights := []float64{3, 1}
	centroid := WeightedCentroid(vectors, weights)
	require.Len(t, centroid, 2)
	assert.InDelta(t, 0.75, centroid[0], 1e-6)
	assert.InDelta(t, 0.25, centroid[1], 1e-6)
}

func TestWeightedCentroid_SignCancellation(t *testing.T) {
	// A downvote on the same direction should pull the centroid back.
	vectors := [][]float32{
		{1, 0},
		{1, 0},
	}
	weights := []float64{1.0, -0.5}
	centroid := WeightedCentroid(vectors, weights)
	require.Len(t, centroid, 2)
	// (1*1/1.5) + (1*-0.5/1.5) = 1/3
	assert.InDelta(t, 1.0/3.0, centroid[0], 1e-6)
}

func TestWeightedCentroid_ZeroTotalWeight(t *testing.T) {
	assert.Nil(t, WeightedCentroid([][]float32{{1, 2}}, []float64{0}))
}

func TestWeightedCentroid_MismatchedInputs(t *testing.T) {
	assert.Nil(t, WeightedCentroid(nil, nil))
	assert.Nil(t, WeightedCentroid([][]float32{{1}}, []float64{1, 2}))
	assert.Nil(t, WeightedCentroid([][]float32{{1, 2}, {1}}, []float64{1, 1}))
}
