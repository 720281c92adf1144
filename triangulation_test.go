package regrid

import (
	"testing"

	vec2d "github.com/flywave/go3d/float64/vec2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridIndexTooFewPoints(t *testing.T) {
	_, err := NewGridIndex([]vec2d.T{{0, 0}, {1, 1}})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestNewGridIndexCollinear(t *testing.T) {
	_, err := NewGridIndex([]vec2d.T{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	assert.Error(t, err, "collinear points yield no triangles")
}

func TestLocateInside(t *testing.T) {
	pts := []vec2d.T{{0, 0}, {2, 0}, {0, 2}}
	ix, err := NewGridIndex(pts)
	require.NoError(t, err)

	simplices, coords := ix.Locate([]vec2d.T{{0.5, 0.5}})
	require.Len(t, simplices, 1)
	s, w := simplices[0], coords[0]
	require.GreaterOrEqual(t, s, 0)

	sum := 0.0
	for k := 0; k < 3; k++ {
		assert.GreaterOrEqual(t, w[k], -locateEps)
		sum += w[k]
	}
	assert.InDelta(t, 1, sum, 1e-12)

	// Barycentric weights reproduce a linear function exactly.
	f := func(p vec2d.T) float64 { return 1 + p[0] + 2*p[1] }
	v := ix.Vertices(s)
	got := w[0]*f(pts[v[0]]) + w[1]*f(pts[v[1]]) + w[2]*f(pts[v[2]])
	assert.InDelta(t, f(vec2d.T{0.5, 0.5}), got, 1e-12)
}

func TestLocateVertexAndEdge(t *testing.T) {
	pts := []vec2d.T{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	ix, err := NewGridIndex(pts)
	require.NoError(t, err)

	// A query on a vertex and one on a shared edge both resolve to some
	// containing triangle with weights summing to one.
	simplices, coords := ix.Locate([]vec2d.T{{0, 0}, {1, 1}})
	for i, s := range simplices {
		require.GreaterOrEqual(t, s, 0)
		w := coords[i]
		assert.InDelta(t, 1, w[0]+w[1]+w[2], 1e-12)
	}
}

func TestLocateOutside(t *testing.T) {
	ix, err := NewGridIndex([]vec2d.T{{0, 0}, {2, 0}, {0, 2}})
	require.NoError(t, err)

	simplices, _ := ix.Locate([]vec2d.T{{9, 11}, {-1, -1}, {2, 2}})
	assert.Equal(t, []int{-1, -1, -1}, simplices)
}

func TestLocateWalkAcrossGrid(t *testing.T) {
	// A 5x5 lattice forces the walk to cross several triangles.
	var pts []vec2d.T
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			pts = append(pts, vec2d.T{float64(x), float64(y)})
		}
	}
	ix, err := NewGridIndex(pts)
	require.NoError(t, err)

	queries := []vec2d.T{{0.25, 3.75}, {3.9, 0.1}, {2, 2}, {1.5, 2.5}}
	simplices, coords := ix.Locate(queries)
	f := func(p vec2d.T) float64 { return 3*p[0] - p[1] + 7 }
	for i, s := range simplices {
		require.GreaterOrEqual(t, s, 0, "query %d should be inside the hull", i)
		v, w := ix.Vertices(s), coords[i]
		got := w[0]*f(pts[v[0]]) + w[1]*f(pts[v[1]]) + w[2]*f(pts[v[2]])
		assert.InDelta(t, f(queries[i]), got, 1e-10)
	}
}

func TestNearest(t *testing.T) {
	ix, err := NewGridIndex([]vec2d.T{{0, 0}, {2, 0}, {0, 2}})
	require.NoError(t, err)

	got := ix.Nearest([]vec2d.T{{9, 11}, {11, 9}, {0.1, 0.1}})
	assert.Equal(t, []int{2, 1, 0}, got)
}
