package regrid

import (
	"fmt"

	"github.com/ctessum/sparse"
	vec2d "github.com/flywave/go3d/float64/vec2"
)

// Interpolator maps one source field snapshot onto the destination points.
// A snapshot is a flattened horizontal slice of one field at one time level
// and, for layered fields, one vertical layer. Implementations are selected
// once at configuration time and are safe to reuse across snapshots.
type Interpolator interface {
	Interpolate(src *sparse.DenseArray) ([]float64, error)
}

// BilinearInterpolator interpolates from a structured source grid using the
// standard four-corner area-weighted average. Cell location is recomputed
// per call; no weight table is involved. Destination points outside the grid
// reuse the nearest edge cell, extrapolating its bilinear surface.
type BilinearInterpolator struct {
	grid *StructuredGrid
	dst  []vec2d.T
}

func NewBilinearInterpolator(grid *StructuredGrid, dst []vec2d.T) *BilinearInterpolator {
	return &BilinearInterpolator{grid: grid, dst: dst}
}

func (b *BilinearInterpolator) Interpolate(src *sparse.DenseArray) ([]float64, error) {
	nx := len(b.grid.X)
	if len(src.Elements) != b.grid.Size() {
		return nil, fmt.Errorf("regrid: bilinear: snapshot has %d values, grid expects %d", len(src.Elements), b.grid.Size())
	}
	out := make([]float64, len(b.dst))
	for i, p := range b.dst {
		xg := cellIndex(b.grid.X, p[0])
		yg := cellIndex(b.grid.Y, p[1])
		tx := (p[0] - b.grid.X[xg]) / (b.grid.X[xg+1] - b.grid.X[xg])
		ty := (p[1] - b.grid.Y[yg]) / (b.grid.Y[yg+1] - b.grid.Y[yg])
		v00 := src.Elements[yg*nx+xg]
		v10 := src.Elements[yg*nx+xg+1]
		v01 := src.Elements[(yg+1)*nx+xg]
		v11 := src.Elements[(yg+1)*nx+xg+1]
		out[i] = v00*(1-tx)*(1-ty) + v10*tx*(1-ty) + v01*(1-tx)*ty + v11*tx*ty
	}
	return out, nil
}

// BarycentricInterpolator applies a precomputed WeightTable: each
// destination value is the dot product of the three source values at the
// stored vertex indices with the stored barycentric weights. Points outside
// the convex hull are then overwritten with the value at their precomputed
// nearest source point. The override is always on; extrapolated barycentric
// values outside the hull can be unboundedly wrong.
type BarycentricInterpolator struct {
	table *WeightTable
}

func NewBarycentricInterpolator(table *WeightTable) *BarycentricInterpolator {
	return &BarycentricInterpolator{table: table}
}

func (d *BarycentricInterpolator) Interpolate(src *sparse.DenseArray) ([]float64, error) {
	t := d.table
	if len(src.Elements) != t.SourceSize {
		return nil, fmt.Errorf("regrid: barycentric: snapshot has %d values, weight table expects %d", len(src.Elements), t.SourceSize)
	}
	out := make([]float64, len(t.Vertices))
	for i := range out {
		v, w := t.Vertices[i], t.Weights[i]
		out[i] = src.Elements[v[0]]*w[0] + src.Elements[v[1]]*w[1] + src.Elements[v[2]]*w[2]
	}
	for j, i := range t.Outside {
		out[i] = src.Elements[t.OutsideNearest[j]]
	}
	return out, nil
}

// NearestInterpolator gathers the source value at a precomputed nearest
// source index for every destination point, independent of hull membership.
type NearestInterpolator struct {
	index      []int
	sourceSize int
}

func NewNearestInterpolator(index []int, sourceSize int) *NearestInterpolator {
	return &NearestInterpolator{index: index, sourceSize: sourceSize}
}

func (n *NearestInterpolator) Interpolate(src *sparse.DenseArray) ([]float64, error) {
	if len(src.Elements) != n.sourceSize {
		return nil, fmt.Errorf("regrid: nearest: snapshot has %d values, index expects %d", len(src.Elements), n.sourceSize)
	}
	out := make([]float64, len(n.index))
	for i, j := range n.index {
		out[i] = src.Elements[j]
	}
	return out, nil
}

// SparseMatrixInterpolator accumulates externally supplied (row, col, S)
// triples into a zero-initialized destination buffer. Repeated rows
// accumulate rather than overwrite. Out-of-range indices fail the whole
// apply; nothing is swallowed.
type SparseMatrixInterpolator struct {
	weights *SparseWeights
	size    int
}

func NewSparseMatrixInterpolator(weights *SparseWeights, destinationSize int) *SparseMatrixInterpolator {
	return &SparseMatrixInterpolator{weights: weights, size: destinationSize}
}

func (s *SparseMatrixInterpolator) Interpolate(src *sparse.DenseArray) ([]float64, error) {
	out := make([]float64, s.size)
	w := s.weights
	for k := range w.S {
		r := int(w.Row[k]) - 1 // 1-based destination rows
		c := int(w.Col[k])
		if r < 0 || r >= s.size {
			return nil, fmt.Errorf("regrid: sparse apply: row %d outside destination of size %d", w.Row[k], s.size)
		}
		if c < 0 || c >= len(src.Elements) {
			return nil, fmt.Errorf("regrid: sparse apply: column %d outside source of size %d", c, len(src.Elements))
		}
		out[r] += w.S[k] * src.Elements[c]
	}
	return out, nil
}
