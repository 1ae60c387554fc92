package mot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/swdee/go-edgetrack/tracker"
)

func TestEmbeddingFromFloat16(t *testing.T) {
	raw := []uint16{
		float16.Fromfloat32(3).Bits(),
		float16.Fromfloat32(4).Bits(),
	}

	e := EmbeddingFromFloat16(raw)
	require.Len(t, e, 2)
	assert.InDelta(t, 0.6, e[0], 1e-6)
	assert.InDelta(t, 0.8, e[1], 1e-6)
}

func TestEmbeddingFromInt8(t *testing.T) {
	e := EmbeddingFromInt8([]int8{10, 10, 10}, 0.5, 10)

	// zero vector is left unnormalized
	assert.Equal(t, Embedding{0, 0, 0}, e)

	e = EmbeddingFromInt8([]int8{13, 14}, 0.5, 10)
	assert.InDelta(t, 0.6, e[0], 1e-6)
	assert.InDelta(t, 0.8, e[1], 1e-6)
}

func TestEmbeddingCostMatrix(t *testing.T) {
	a := Embedding{1, 0}
	b := Embedding{0, 1}
	c := Embedding{-1, 0}

	cost := EmbeddingCostMatrix([]Embedding{a, b}, []Embedding{b, a, c})
	require.Len(t, cost, 2)

	assert.InDeltaSlice(t, []float32{1, 0, 2}, cost[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 1}, cost[1], 1e-6)

	assert.Equal(t, float32(2), CosineDistance(a, Embedding{1, 0, 0}))
	assert.Empty(t, EmbeddingCostMatrix(nil, []Embedding{a}))

	// appearance alone resolves the assignment
	m, err := tracker.LinearAssignment(cost, 2, 3, func(r, c int) bool {
		return cost[r][c] < 0.5
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 0}}, m.Pairs)
	assert.Equal(t, []int{2}, m.UnmatchedCols)
}
