package regrid

import (
	vec2d "github.com/flywave/go3d/float64/vec2"
)

type thinCell struct {
	sum   vec2d.T
	num   int
	index int
}

// ThinPoints coarsens a point set onto an nx by ny cell lattice spanning its
// extent, replacing the points of each occupied cell with their average.
// Cells holding a single point keep it unchanged. Intended for point sets
// above MaxTriangulationPoints; the caller is responsible for resampling any
// associated field values onto the thinned set.
func ThinPoints(pc []vec2d.T, nx, ny int) ([]vec2d.T, error) {
	if len(pc) == 0 {
		return nil, configErrorf("no points to thin")
	}
	if nx < 1 || ny < 1 {
		return nil, configErrorf("thinning lattice must be at least 1x1, got %dx%d", nx, ny)
	}

	r := PointSetExtent(pc)
	leafX := (r.Max[0] - r.Min[0]) / float64(nx)
	leafY := (r.Max[1] - r.Min[1]) / float64(ny)

	cells := make([]thinCell, (nx+1)*(ny+1))
	for i := range pc {
		x := latticeIndex(pc[i][0]-r.Min[0], leafX, nx)
		y := latticeIndex(pc[i][1]-r.Min[1], leafY, ny)
		v := &cells[x+(nx+1)*y]
		if v.num == 0 {
			v.index = i
		}
		v.num++
		v.sum[0] += pc[i][0]
		v.sum[1] += pc[i][1]
	}

	out := make([]vec2d.T, 0, len(pc))
	for i := range cells {
		v := &cells[i]
		switch {
		case v.num == 1:
			out = append(out, pc[v.index])
		case v.num > 1:
			out = append(out, vec2d.T{v.sum[0] / float64(v.num), v.sum[1] / float64(v.num)})
		}
	}
	return out, nil
}

func latticeIndex(d, leaf float64, n int) int {
	if leaf <= 0 {
		return 0
	}
	i := int(d / leaf)
	if i > n {
		i = n
	}
	return i
}
