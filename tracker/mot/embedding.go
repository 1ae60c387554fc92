package mot

import (
	"github.com/x448/float16"
	"gonum.org/v1/gonum/floats"
)

// Embedding is an L2 normalized appearance feature vector of a detection
// as produced by a re-identification model
type Embedding []float64

// EmbeddingFromFloat16 converts the raw fp16 output tensor of a
// re-identification model into a normalized embedding
func EmbeddingFromFloat16(raw []uint16) Embedding {

	e := make(Embedding, len(raw))

	for i, v := range raw {
		e[i] = float64(float16.Frombits(v).Float32())
	}

	return e.normalize()
}

// EmbeddingFromInt8 dequantizes the int8 output tensor of a
// re-identification model using its scale and zero point into a normalized
// embedding
func EmbeddingFromInt8(q []int8, scale float32, zeroPoint int32) Embedding {

	e := make(Embedding, len(q))

	for i, v := range q {
		e[i] = float64(float32(int32(v)-zeroPoint) * scale)
	}

	return e.normalize()
}

// normalize scales the vector to unit length, a zero vector is returned as is
func (e Embedding) normalize() Embedding {

	norm := floats.Norm(e, 2)

	if norm == 0 {
		return e
	}

	floats.Scale(1/norm, e)

	return e
}

// CosineDistance returns 1 minus the cosine similarity of two normalized
// embeddings in the range [0, 2].  Embeddings of different length are
// maximally distant.
func CosineDistance(a, b Embedding) float32 {

	if len(a) == 0 || len(a) != len(b) {
		return 2
	}

	return float32(1 - floats.Dot(a, b))
}

// EmbeddingCostMatrix returns the cosine distance between every track and
// detection embedding, rows indexed by tracks and columns by detections.
// The result is suitable for tracker.LinearAssignment when appearance is
// fused with IoU by a caller.
func EmbeddingCostMatrix(tracks, dets []Embedding) [][]float32 {

	var cost [][]float32

	if len(tracks)*len(dets) == 0 {
		return cost
	}

	cost = make([][]float32, len(tracks))

	for r := range tracks {
		cost[r] = make([]float32, len(dets))

		for c := range dets {
			cost[r][c] = CosineDistance(tracks[r], dets[c])
		}
	}

	return cost
}
