package regrid

import (
	"math"

	vec2d "github.com/flywave/go3d/float64/vec2"
)

// StructuredGrid is a rectilinear grid defined by two monotonic coordinate
// axes. The implied point set is the Cartesian product of the axes, flattened
// row-major with X varying fastest, matching the element order of a field
// snapshot with shape (len(Y), len(X)).
type StructuredGrid struct {
	X []float64
	Y []float64
}

// NewStructuredGrid validates the axes. Each axis needs at least two samples
// and must be strictly monotonic, ascending or descending. Spacing may vary
// between adjacent samples.
func NewStructuredGrid(x, y []float64) (*StructuredGrid, error) {
	for _, axis := range [][]float64{x, y} {
		if len(axis) < 2 {
			return nil, configErrorf("structured axis needs at least 2 samples, got %d", len(axis))
		}
		if !monotonic(axis) {
			return nil, configErrorf("structured axis is not strictly monotonic")
		}
	}
	return &StructuredGrid{X: x, Y: y}, nil
}

func monotonic(axis []float64) bool {
	asc := axis[1] > axis[0]
	for i := 1; i < len(axis); i++ {
		d := axis[i] - axis[i-1]
		if d == 0 || (d > 0) != asc {
			return false
		}
	}
	return true
}

// Size returns the number of points in the flattened grid.
func (g *StructuredGrid) Size() int { return len(g.X) * len(g.Y) }

// Flatten expands the axes into the explicit point list, Y-major with X
// varying fastest.
func (g *StructuredGrid) Flatten() []vec2d.T {
	pts := make([]vec2d.T, 0, g.Size())
	for _, y := range g.Y {
		for _, x := range g.X {
			pts = append(pts, vec2d.T{x, y})
		}
	}
	return pts
}

// Extent returns the bounding rectangle of the grid.
func (g *StructuredGrid) Extent() vec2d.Rect {
	r := vec2d.Rect{Min: vec2d.MaxVal, Max: vec2d.MinVal}
	for _, x := range g.X {
		r.Min[0] = math.Min(r.Min[0], x)
		r.Max[0] = math.Max(r.Max[0], x)
	}
	for _, y := range g.Y {
		r.Min[1] = math.Min(r.Min[1], y)
		r.Max[1] = math.Max(r.Max[1], y)
	}
	return r
}

// cellIndex locates the grid cell along one axis whose [i, i+1] interval
// holds v. The initial guess divides the offset from the origin by the first
// adjacent-sample spacing, then local adjustment handles non-constant
// spacing. The result is clamped to [0, len(axis)-2]: points at or beyond the
// outer edge reuse the last valid cell, which extends edge-cell behavior
// outside the domain instead of rejecting the point.
func cellIndex(axis []float64, v float64) int {
	n := len(axis)
	d := axis[1] - axis[0]
	i := int(math.Floor((v - axis[0]) / d))
	if i < 0 {
		i = 0
	} else if i > n-2 {
		i = n - 2
	}
	asc := d > 0
	for i > 0 && ((asc && v < axis[i]) || (!asc && v > axis[i])) {
		i--
	}
	for i < n-2 && ((asc && v >= axis[i+1]) || (!asc && v <= axis[i+1])) {
		i++
	}
	return i
}

// PointSet builds an explicit point list from separate x and y coordinate
// slices of equal length, e.g. mesh cell centers.
func PointSet(x, y []float64) ([]vec2d.T, error) {
	if len(x) != len(y) {
		return nil, configErrorf("coordinate slices have mismatched lengths %d and %d", len(x), len(y))
	}
	pts := make([]vec2d.T, len(x))
	for i := range x {
		pts[i] = vec2d.T{x[i], y[i]}
	}
	return pts, nil
}

// PointSetExtent returns the bounding rectangle of a point set.
func PointSetExtent(pts []vec2d.T) vec2d.Rect {
	r := vec2d.Rect{Min: vec2d.MaxVal, Max: vec2d.MinVal}
	for i := range pts {
		r.Extend(&pts[i])
	}
	return r
}
