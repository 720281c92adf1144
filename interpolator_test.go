package regrid

import (
	"testing"

	"github.com/ctessum/sparse"
	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldOnGrid evaluates f at every grid point in flattened order.
func fieldOnGrid(g *StructuredGrid, f func(x, y float64) float64) *sparse.DenseArray {
	out := sparse.ZerosDense(g.Size())
	for i, p := range g.Flatten() {
		out.Elements[i] = f(p[0], p[1])
	}
	return out
}

func TestBilinearAffineExactness(t *testing.T) {
	g, err := NewStructuredGrid([]float64{0, 1, 2, 3}, []float64{0, 1, 2})
	require.NoError(t, err)
	f := func(x, y float64) float64 { return x + 2*y }

	dst := []vec2d.T{{1.5, 0.5}, {0, 0}, {3, 2}, {2.25, 1.75}}
	b := NewBilinearInterpolator(g, dst)
	got, err := b.Interpolate(fieldOnGrid(g, f))
	require.NoError(t, err)

	assert.InDelta(t, 2.5, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 7, got[2], 1e-12)
	assert.InDelta(t, 5.75, got[3], 1e-12)
}

func TestBilinearOutsideExtendsEdgeCell(t *testing.T) {
	g, err := NewStructuredGrid([]float64{0, 1, 2, 3}, []float64{0, 1, 2})
	require.NoError(t, err)
	f := func(x, y float64) float64 { return x + 2*y }

	// An affine surface extrapolates exactly through the edge cell.
	dst := []vec2d.T{{-1, -1}, {4, 3}}
	b := NewBilinearInterpolator(g, dst)
	got, err := b.Interpolate(fieldOnGrid(g, f))
	require.NoError(t, err)
	assert.InDelta(t, -3, got[0], 1e-12)
	assert.InDelta(t, 10, got[1], 1e-12)
}

func TestBilinearDescendingAxes(t *testing.T) {
	g, err := NewStructuredGrid([]float64{3, 2, 1, 0}, []float64{2, 1, 0})
	require.NoError(t, err)
	f := func(x, y float64) float64 { return x + 2*y }

	b := NewBilinearInterpolator(g, []vec2d.T{{1.5, 0.5}})
	got, err := b.Interpolate(fieldOnGrid(g, f))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got[0], 1e-12)
}

func TestBilinearSizeMismatch(t *testing.T) {
	g, err := NewStructuredGrid([]float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	b := NewBilinearInterpolator(g, []vec2d.T{{0.5, 0.5}})
	_, err = b.Interpolate(sparse.ZerosDense(3))
	assert.Error(t, err)
}

func TestBarycentricInterpolator(t *testing.T) {
	ix, err := NewGridIndex([]vec2d.T{{0, 0}, {2, 0}, {0, 2}})
	require.NoError(t, err)
	wt := BuildWeightTable(ix, []vec2d.T{{0.5, 0.5}, {9, 11}, {11, 9}})

	src := sparse.ZerosDense(3)
	copy(src.Elements, []float64{1, 3, 5}) // f = 1 + x + 2y at the vertices

	d := NewBarycentricInterpolator(wt)
	got, err := d.Interpolate(src)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got[0], 1e-12)
	assert.Equal(t, 5.0, got[1], "outside the hull takes the nearest vertex value")
	assert.Equal(t, 3.0, got[2])

	_, err = d.Interpolate(sparse.ZerosDense(7))
	assert.Error(t, err)
}

func TestNearestInterpolator(t *testing.T) {
	n := NewNearestInterpolator([]int{2, 0}, 3)
	src := sparse.ZerosDense(3)
	copy(src.Elements, []float64{10, 20, 30})

	got, err := n.Interpolate(src)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10}, got)

	_, err = n.Interpolate(sparse.ZerosDense(2))
	assert.Error(t, err)
}

func TestSparseMatrixInterpolator(t *testing.T) {
	w, err := NewSparseWeights(
		[]float64{0.5, 0.5, 1},
		[]int32{1, 1, 2}, // 1-based destination rows, repeats accumulate
		[]int32{0, 1, 2},
	)
	require.NoError(t, err)
	s := NewSparseMatrixInterpolator(w, 2)

	src := sparse.ZerosDense(3)
	copy(src.Elements, []float64{2, 4, 6})
	got, err := s.Interpolate(src)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, got)

	// Linearity: scaling the input scales the output.
	for i := range src.Elements {
		src.Elements[i] *= 2
	}
	got, err = s.Interpolate(src)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 12}, got)
}

func TestSparseMatrixInterpolatorBounds(t *testing.T) {
	src := sparse.ZerosDense(3)

	w, err := NewSparseWeights([]float64{1}, []int32{3}, []int32{0})
	require.NoError(t, err)
	_, err = NewSparseMatrixInterpolator(w, 2).Interpolate(src)
	assert.Error(t, err, "row beyond the destination fails the apply")

	w, err = NewSparseWeights([]float64{1}, []int32{1}, []int32{3})
	require.NoError(t, err)
	_, err = NewSparseMatrixInterpolator(w, 2).Interpolate(src)
	assert.Error(t, err, "column beyond the source fails the apply")
}
