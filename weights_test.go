package regrid

import (
	"testing"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWeightTable(t *testing.T) {
	ix, err := NewGridIndex([]vec2d.T{{0, 0}, {2, 0}, {0, 2}})
	require.NoError(t, err)

	dst := []vec2d.T{{0.5, 0.5}, {9, 11}, {11, 9}}
	wt := BuildWeightTable(ix, dst)

	assert.Equal(t, 3, wt.SourceSize)
	require.Len(t, wt.Vertices, 3)
	require.Len(t, wt.Weights, 3)

	w := wt.Weights[0]
	assert.InDelta(t, 1, w[0]+w[1]+w[2], 1e-15, "weights sum to one by construction")
	for k := 0; k < 3; k++ {
		assert.GreaterOrEqual(t, w[k], -locateEps)
	}

	assert.Equal(t, []int{1, 2}, wt.Outside)
	assert.Equal(t, []int{2, 1}, wt.OutsideNearest)
}

func TestBuildWeightTableAllInside(t *testing.T) {
	ix, err := NewGridIndex([]vec2d.T{{0, 0}, {2, 0}, {0, 2}, {2, 2}})
	require.NoError(t, err)

	wt := BuildWeightTable(ix, []vec2d.T{{1, 1}, {0.5, 1.5}})
	assert.Empty(t, wt.Outside)
	assert.Empty(t, wt.OutsideNearest)
}

func TestNewSparseWeights(t *testing.T) {
	w, err := NewSparseWeights([]float64{1, 2}, []int32{1, 2}, []int32{0, 1})
	require.NoError(t, err)
	assert.Len(t, w.S, 2)

	_, err = NewSparseWeights([]float64{1}, []int32{1, 2}, []int32{0})
	assert.Error(t, err)
}
