package regrid

import (
	"fmt"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/fogleman/delaunay"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// MaxTriangulationPoints is the point count above which Delaunay
// triangulation quality may degrade (a limitation inherited from Qhull-era
// tooling). Construction proceeds with a warning; ThinPoints can be used to
// coarsen the point set first.
const MaxTriangulationPoints = 1<<24 - 1

const locateEps = 1e-12

// GridIndex is the point-location structure for one source point set: a
// planar Delaunay triangulation with precomputed per-triangle barycentric
// transforms, plus a KD-tree for nearest-neighbor queries. It is immutable
// after construction and safe to share across fields and time levels.
type GridIndex struct {
	points []vec2d.T
	tri    *delaunay.Triangulation

	// Per-triangle barycentric transform: the inverted 2x2 edge matrix and
	// the third vertex it is anchored at.
	transforms [][4]float64
	anchors    [][2]float64
	degenerate []bool

	// One triangle incident to each vertex, -1 for vertices dropped by the
	// triangulation. Used as the walk starting point.
	vertexTriangle []int

	prox *proximityIndex
}

// NewGridIndex triangulates the point set and builds the companion
// proximity structure. It fails with ErrTooFewPoints when fewer than 3
// non-degenerate points are available.
func NewGridIndex(points []vec2d.T) (*GridIndex, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	if len(points) > MaxTriangulationPoints {
		log.Warnf("point set has %d points, above the %d triangulation caveat; quality may degrade", len(points), MaxTriangulationPoints)
	}

	dpts := make([]delaunay.Point, len(points))
	for i, p := range points {
		dpts[i] = delaunay.Point{X: p[0], Y: p[1]}
	}
	tri, err := delaunay.Triangulate(dpts)
	if err != nil {
		return nil, fmt.Errorf("regrid: building triangulation: %v", err)
	}
	nt := len(tri.Triangles) / 3
	if nt == 0 {
		return nil, ErrTooFewPoints
	}

	ix := &GridIndex{
		points:         points,
		tri:            tri,
		transforms:     make([][4]float64, nt),
		anchors:        make([][2]float64, nt),
		degenerate:     make([]bool, nt),
		vertexTriangle: make([]int, len(points)),
		prox:           newProximityIndex(points),
	}
	for i := range ix.vertexTriangle {
		ix.vertexTriangle[i] = -1
	}
	for e, v := range tri.Triangles {
		if ix.vertexTriangle[v] < 0 {
			ix.vertexTriangle[v] = e / 3
		}
	}

	for t := 0; t < nt; t++ {
		a := points[tri.Triangles[3*t]]
		b := points[tri.Triangles[3*t+1]]
		c := points[tri.Triangles[3*t+2]]
		inv, ok := invert2x2([4]float64{a[0] - c[0], b[0] - c[0], a[1] - c[1], b[1] - c[1]})
		if !ok {
			ix.degenerate[t] = true
			continue
		}
		ix.transforms[t] = inv
		ix.anchors[t] = [2]float64{c[0], c[1]}
	}
	return ix, nil
}

// NumPoints returns the size of the indexed point set.
func (ix *GridIndex) NumPoints() int { return len(ix.points) }

// barycentric maps q into triangle t's barycentric coordinates. The third
// coordinate is derived as 1 minus the other two.
func (ix *GridIndex) barycentric(t int, q vec2d.T) [3]float64 {
	m := ix.transforms[t]
	dx := q[0] - ix.anchors[t][0]
	dy := q[1] - ix.anchors[t][1]
	w0 := m[0]*dx + m[1]*dy
	w1 := m[2]*dx + m[3]*dy
	return [3]float64{w0, w1, 1 - w0 - w1}
}

// Vertices returns the three vertex indices of triangle t.
func (ix *GridIndex) Vertices(t int) [3]int {
	return [3]int{ix.tri.Triangles[3*t], ix.tri.Triangles[3*t+1], ix.tri.Triangles[3*t+2]}
}

// Locate finds, for each query point, the index of the triangle containing
// it and the barycentric coordinates relative to that triangle's vertices.
// A triangle index of -1 marks a point outside the convex hull of the
// source point set.
func (ix *GridIndex) Locate(queries []vec2d.T) ([]int, [][3]float64) {
	simplices := make([]int, len(queries))
	coords := make([][3]float64, len(queries))
	for i, q := range queries {
		simplices[i], coords[i] = ix.locateOne(q)
	}
	return simplices, coords
}

// locateOne walks the triangulation from a triangle incident to the nearest
// vertex, crossing the edge opposite the most negative barycentric
// coordinate until the query is enclosed.
func (ix *GridIndex) locateOne(q vec2d.T) (int, [3]float64) {
	t := ix.vertexTriangle[ix.prox.nearest(q)]
	if t < 0 {
		return ix.locateSlow(q)
	}
	for step := 0; step < len(ix.degenerate); step++ {
		if ix.degenerate[t] {
			return ix.locateSlow(q)
		}
		w := ix.barycentric(t, q)
		neg, wmin := -1, -locateEps
		for k, wk := range w {
			if wk < wmin {
				neg, wmin = k, wk
			}
		}
		if neg < 0 {
			return t, w
		}
		// Halfedge 3t+k runs from vertex slot k to slot (k+1)%3, so the
		// edge opposite slot neg starts at slot neg+1.
		twin := ix.tri.Halfedges[3*t+(neg+1)%3]
		if twin < 0 {
			// Crossed a hull edge. Verify against the hull polygon before
			// declaring the point outside.
			return ix.locateSlow(q)
		}
		t = twin / 3
	}
	return ix.locateSlow(q)
}

// locateSlow is the fallback when the walk exits the hull or fails to
// settle: a hull membership test followed, for interior points only, by an
// exhaustive triangle scan.
func (ix *GridIndex) locateSlow(q vec2d.T) (int, [3]float64) {
	if !hullContains(ix.tri.ConvexHull, q[0], q[1]) {
		return -1, [3]float64{}
	}
	for t := range ix.degenerate {
		if ix.degenerate[t] {
			continue
		}
		w := ix.barycentric(t, q)
		if w[0] >= -locateEps && w[1] >= -locateEps && w[2] >= -locateEps {
			return t, w
		}
	}
	return -1, [3]float64{}
}

// hullContains is a ray-casting membership test against the convex hull
// polygon. Points exactly on a hull edge may fall on either side of the
// test; the walk normally resolves those before reaching it.
func hullContains(hull []delaunay.Point, x, y float64) bool {
	contains := false
	k := len(hull)
	j := k - 1
	for i := 0; i < k; i++ {
		xi, yi := hull[i].X, hull[i].Y
		xj, yj := hull[j].X, hull[j].Y
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi) {
			contains = !contains
		}
		j = i
	}
	return contains
}

// Nearest resolves the index of the nearest source point for each query.
func (ix *GridIndex) Nearest(queries []vec2d.T) []int {
	return ix.prox.nearestAll(queries)
}

// proximityIndex answers nearest-neighbor queries over a point set.
type proximityIndex struct {
	tree *kdtree.Tree
}

func newProximityIndex(points []vec2d.T) *proximityIndex {
	data := make(gridPoints, len(points))
	for i, p := range points {
		data[i] = gridPoint{pt: p, idx: i}
	}
	return &proximityIndex{tree: kdtree.New(data, true)}
}

func (px *proximityIndex) nearest(q vec2d.T) int {
	got, _ := px.tree.Nearest(gridPoint{pt: q, idx: -1})
	return got.(gridPoint).idx
}

func (px *proximityIndex) nearestAll(queries []vec2d.T) []int {
	idx := make([]int, len(queries))
	for i, q := range queries {
		idx[i] = px.nearest(q)
	}
	return idx
}

// gridPoint carries a point set entry and its positional index through the
// KD-tree.
type gridPoint struct {
	pt  vec2d.T
	idx int
}

func (p gridPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(gridPoint)
	switch d {
	case 0:
		return p.pt[0] - q.pt[0]
	case 1:
		return p.pt[1] - q.pt[1]
	default:
		panic("illegal dimension")
	}
}

func (p gridPoint) Dims() int { return 2 }

func (p gridPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(gridPoint)
	dx := p.pt[0] - q.pt[0]
	dy := p.pt[1] - q.pt[1]
	return dx*dx + dy*dy
}

type gridPoints []gridPoint

func (p gridPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p gridPoints) Len() int                              { return len(p) }
func (p gridPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p gridPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{gridPoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{gridPoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer over one
// dimension of a gridPoints collection.
type pointPlane struct {
	gridPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.gridPoints[i].pt[0] < p.gridPoints[j].pt[0]
	case 1:
		return p.gridPoints[i].pt[1] < p.gridPoints[j].pt[1]
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{gridPoints: p.gridPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.gridPoints[i], p.gridPoints[j] = p.gridPoints[j], p.gridPoints[i]
}
