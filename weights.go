package regrid

import (
	vec2d "github.com/flywave/go3d/float64/vec2"
	log "github.com/sirupsen/logrus"
)

// WeightTable holds precomputed barycentric interpolation weights from one
// source point set onto one destination point set. It is built once per
// source topology and reused for every field, vertical layer and time level
// sharing that topology. Immutable after construction.
type WeightTable struct {
	// SourceSize is the flattened length a compatible source snapshot must
	// have.
	SourceSize int

	// Vertices and Weights hold, per destination point, the three source
	// vertex indices and their barycentric weights. Entries for points
	// outside the convex hull are left over from the failed location query
	// and are overwritten at apply time.
	Vertices [][3]int
	Weights  [][3]float64

	// Outside lists destination point indices outside the convex hull of
	// the source point set, and OutsideNearest the precomputed nearest
	// source point for each. Resolved eagerly because it depends only on
	// geometry, never on field values.
	Outside        []int
	OutsideNearest []int
}

// BuildWeightTable runs the location query for every destination point in
// one batch and stores the resulting simplex vertices and weights. The third
// weight is recomputed as 1 minus the first two so the invariant holds by
// construction. Destination points outside the convex hull get their nearest
// source point resolved immediately.
func BuildWeightTable(ix *GridIndex, dst []vec2d.T) *WeightTable {
	wt := &WeightTable{
		SourceSize: ix.NumPoints(),
		Vertices:   make([][3]int, len(dst)),
		Weights:    make([][3]float64, len(dst)),
	}

	simplices, coords := ix.Locate(dst)
	var outsideCoords []vec2d.T
	for i, s := range simplices {
		if s < 0 {
			wt.Outside = append(wt.Outside, i)
			outsideCoords = append(outsideCoords, dst[i])
			continue
		}
		wt.Vertices[i] = ix.Vertices(s)
		w := coords[i]
		wt.Weights[i] = [3]float64{w[0], w[1], 1 - w[0] - w[1]}
	}

	if len(wt.Outside) > 0 {
		log.Infof("found %d points requiring extrapolation; using nearest neighbor for those", len(wt.Outside))
		wt.OutsideNearest = ix.Nearest(outsideCoords)
	}
	return wt
}

// SparseWeights is an externally supplied interpolation operator: aligned
// (value, destination row, source column) triples with the 1-based row and
// column convention of ESMF weight files.
type SparseWeights struct {
	S   []float64
	Row []int32
	Col []int32
}

// NewSparseWeights validates that the three sequences are aligned.
func NewSparseWeights(s []float64, row, col []int32) (*SparseWeights, error) {
	if len(s) != len(row) || len(s) != len(col) {
		return nil, configErrorf("sparse weights have mismatched lengths: S=%d row=%d col=%d", len(s), len(row), len(col))
	}
	return &SparseWeights{S: s, Row: row, Col: col}, nil
}
