package regrid

import (
	"fmt"

	"github.com/ctessum/sparse"
	vec2d "github.com/flywave/go3d/float64/vec2"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Source provides field snapshots from the source store.
type Source interface {
	// HasField reports whether the store carries the named field.
	HasField(name string) bool
	// Field returns one snapshot of the named field. Fields with a time
	// dimension are sliced at timeIndex; static fields return the same
	// data for every requested index. Unlayered snapshots are flat with
	// shape (points); layered ones have shape (layers, points) with the
	// horizontal flattened the same way as the topology's point set.
	Field(name string, timeIndex int, layered bool) (*sparse.DenseArray, error)
	// LayerCoordinates returns the source vertical coordinate sequence for
	// the named layered field; it must have exactly layers entries.
	LayerCoordinates(name string, layers int) ([]float64, error)
}

// Destination persists interpolated fields onto the target mesh.
type Destination interface {
	HasField(name string) bool
	// VerticalCoordinates resolves the vertical coordinate sequence the
	// named destination field declares (layer centers or interfaces).
	VerticalCoordinates(name string) ([]float64, error)
	// Write persists one complete field array for one time level. It must
	// support repeated calls for successive time levels without
	// invalidating previously written ones.
	Write(name string, timeIndex int, data *sparse.DenseArray) error
}

// topology bundles the geometric resources for one source grid: the
// geometric index, the weight table with its extrapolation set, and the
// whole-field nearest mapping. Built once, read-only afterwards.
type topology struct {
	grid    *StructuredGrid // non-nil for structured topologies
	index   *GridIndex
	table   *WeightTable
	nearest []int
	size    int
}

// Regridder interpolates registered fields from one or more source
// topologies onto a fixed destination point set. The per-topology resources
// each method needs are built when the topology is added and shared across
// all fields, layers and time levels.
type Regridder struct {
	method        Method
	dstPoints     []vec2d.T
	topos         map[GridType]*topology
	sparseWeights *SparseWeights
}

// NewRegridder creates a regridder targeting the given destination points
// (e.g. mesh cell centers) with one interpolation method for the whole run.
func NewRegridder(method Method, dstPoints []vec2d.T) *Regridder {
	return &Regridder{
		method:    method,
		dstPoints: dstPoints,
		topos:     make(map[GridType]*topology),
	}
}

// AddStructuredTopology registers a structured source grid under a grid
// type tag and precomputes whatever the configured method needs for it.
func (r *Regridder) AddStructuredTopology(gt GridType, grid *StructuredGrid) error {
	topo := &topology{grid: grid, size: grid.Size()}
	if err := r.prepare(topo, grid.Flatten()); err != nil {
		return err
	}
	r.topos[gt] = topo
	return nil
}

// AddPointTopology registers an unstructured source point set under a grid
// type tag. The bilinear method has no meaning on point sets and is
// rejected.
func (r *Regridder) AddPointTopology(gt GridType, pts []vec2d.T) error {
	if r.method == Bilinear {
		return configErrorf("bilinear interpolation requires a structured source grid, but %q is a point set", gt)
	}
	topo := &topology{size: len(pts)}
	if err := r.prepare(topo, pts); err != nil {
		return err
	}
	r.topos[gt] = topo
	return nil
}

func (r *Regridder) prepare(topo *topology, pts []vec2d.T) error {
	switch r.method {
	case Barycentric:
		ix, err := NewGridIndex(pts)
		if err != nil {
			return err
		}
		topo.index = ix
		topo.table = BuildWeightTable(ix, r.dstPoints)
	case NearestNeighbor:
		topo.nearest = newProximityIndex(pts).nearestAll(r.dstPoints)
	case Bilinear, SparseMatrix:
		// bilinear relocates cells per call; sparse weights come from an
		// external file
	default:
		return configErrorf("unknown interpolation method %q", r.method)
	}
	return nil
}

// SetSparseWeights supplies the external weight triples used by the
// sparse-matrix method.
func (r *Regridder) SetSparseWeights(w *SparseWeights) { r.sparseWeights = w }

// interpolatorFor selects the strategy for one field. Selection is a pure
// function of the method and the field's grid type; incompatible pairings
// are configuration errors.
func (r *Regridder) interpolatorFor(f FieldInfo) (Interpolator, error) {
	topo, ok := r.topos[f.Grid]
	if !ok {
		return nil, configErrorf("field %s is on grid %q but no such topology is registered", f.Name, f.Grid)
	}
	switch r.method {
	case Bilinear:
		if topo.grid == nil {
			return nil, configErrorf("bilinear interpolation requested for field %s on non-structured grid %q", f.Name, f.Grid)
		}
		return NewBilinearInterpolator(topo.grid, r.dstPoints), nil
	case Barycentric:
		return NewBarycentricInterpolator(topo.table), nil
	case NearestNeighbor:
		return NewNearestInterpolator(topo.nearest, topo.size), nil
	case SparseMatrix:
		if f.Grid == GridStaggered {
			return nil, configErrorf("field %s is on the staggered grid and no staggered weight set is available", f.Name)
		}
		if r.sparseWeights == nil {
			return nil, configErrorf("sparse-matrix method requested but no weight set was loaded")
		}
		return NewSparseMatrixInterpolator(r.sparseWeights, len(r.dstPoints)), nil
	}
	return nil, configErrorf("unknown interpolation method %q", r.method)
}

// Process runs the pipeline for every registered field in order.
func (r *Regridder) Process(src Source, dst Destination, fields []FieldInfo, timeStart, timeEnd int) error {
	for _, f := range fields {
		log.Infof("## %s ##", f.Name)
		if err := r.ProcessField(src, dst, f, timeStart, timeEnd); err != nil {
			return err
		}
	}
	return nil
}

// ProcessField interpolates one field for each requested time level:
// fetch a snapshot, interpolate horizontally (once per source layer for
// layered fields), apply scale/offset, re-layer vertically, apply the
// declared clamp, then persist. Fields absent from either store are skipped
// with a diagnostic. A time level is written only after its complete value
// array is computed.
func (r *Regridder) ProcessField(src Source, dst Destination, f FieldInfo, timeStart, timeEnd int) error {
	if !dst.HasField(f.Name) {
		log.Warnf("field %s is not in the destination store; skipping", f.Name)
		return nil
	}
	if !src.HasField(f.SourceName) {
		log.Warnf("field %s is not in the source store; skipping", f.SourceName)
		return nil
	}

	interp, err := r.interpolatorFor(f)
	if err != nil {
		return err
	}

	for t := timeStart; t <= timeEnd; t++ {
		log.Infof("interpolating %s, time level %d", f.Name, t)
		var out *sparse.DenseArray
		if f.HasVerticalDim {
			out, err = r.interpolateLayered(interp, src, dst, f, t)
		} else {
			out, err = r.interpolateScalar(interp, src, f, t)
		}
		if err != nil {
			return err
		}
		if f.ClampNonNegative {
			clampNonNegative(f.Name, out.Elements)
		}
		if err := dst.Write(f.Name, t, out); err != nil {
			return fmt.Errorf("regrid: writing %s at time level %d: %v", f.Name, t, err)
		}
	}
	return nil
}

func (r *Regridder) interpolateScalar(interp Interpolator, src Source, f FieldInfo, t int) (*sparse.DenseArray, error) {
	data, err := src.Field(f.SourceName, t, false)
	if err != nil {
		return nil, fmt.Errorf("regrid: reading %s: %v", f.SourceName, err)
	}
	reportRange("input "+f.SourceName, data.Elements)

	vals, err := interp.Interpolate(data)
	if err != nil {
		return nil, err
	}
	applyScaleOffset(f, vals)
	reportRange("interpolated "+f.Name, vals)

	out := sparse.ZerosDense(len(vals))
	copy(out.Elements, vals)
	return out, nil
}

func (r *Regridder) interpolateLayered(interp Interpolator, src Source, dst Destination, f FieldInfo, t int) (*sparse.DenseArray, error) {
	data, err := src.Field(f.SourceName, t, true)
	if err != nil {
		return nil, fmt.Errorf("regrid: reading %s: %v", f.SourceName, err)
	}
	if len(data.Shape) != 2 {
		return nil, configErrorf("layered field %s has shape %v, expected (layers, points)", f.SourceName, data.Shape)
	}
	nz, np := data.Shape[0], data.Shape[1]

	// Source layers interpolated horizontally, destination locations.
	inter := sparse.ZerosDense(nz, len(r.dstPoints))
	layer := sparse.ZerosDense(np)
	for z := 0; z < nz; z++ {
		copy(layer.Elements, data.Elements[z*np:(z+1)*np])
		vals, err := interp.Interpolate(layer)
		if err != nil {
			return nil, err
		}
		copy(inter.Elements[z*len(r.dstPoints):], vals)
	}
	applyScaleOffset(f, inter.Elements)
	reportRange("interpolated "+f.Name+" on source layers", inter.Elements)

	srcCoord, err := src.LayerCoordinates(f.SourceName, nz)
	if err != nil {
		return nil, err
	}
	dstCoord, err := dst.VerticalCoordinates(f.Name)
	if err != nil {
		return nil, err
	}
	return Relayer(inter, srcCoord, dstCoord)
}

func applyScaleOffset(f FieldInfo, vals []float64) {
	if f.ScaleFactor != 1 {
		floats.Scale(f.ScaleFactor, vals)
	}
	if f.Offset != 0 {
		floats.AddConst(f.Offset, vals)
	}
}

// clampNonNegative zeroes negative values and reports how many were
// corrected and how far below zero they reached.
func clampNonNegative(name string, vals []float64) {
	count := 0
	worst := 0.0
	for i, v := range vals {
		if v < 0 {
			if v < worst {
				worst = v
			}
			vals[i] = 0
			count++
		}
	}
	if count > 0 {
		log.Infof("clamped %d negative %s values to zero (most negative was %v)", count, name, worst)
	}
}

func reportRange(label string, vals []float64) {
	if len(vals) == 0 {
		return
	}
	log.Debugf("%s min/max: %v %v", label, floats.Min(vals), floats.Max(vals))
}
