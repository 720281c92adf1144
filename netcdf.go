package regrid

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	vec2d "github.com/flywave/go3d/float64/vec2"
)

// SourceLayout identifies how a source file arranges its horizontal
// coordinates and layered variables.
type SourceLayout int

const (
	// LayoutCISM is a structured grid: coordinate vectors x1/y1 (plus the
	// optional staggered x0/y0) and layered variables shaped
	// (time, level, y, x).
	LayoutCISM SourceLayout = iota
	// LayoutMPAS is an unstructured cell mesh: coordinate variables
	// xCell/yCell and layered variables shaped (time, cell, level).
	LayoutMPAS
)

// NetCDFSource reads source fields from a NetCDF (classic format) file,
// normalizing both layouts to the shapes the pipeline expects: flat (points)
// snapshots for unlayered fields and (layers, points) for layered ones.
type NetCDFSource struct {
	ff     *os.File
	f      *cdf.File
	Layout SourceLayout
}

// OpenSource opens a source file and detects its layout from the coordinate
// variables present.
func OpenSource(path string) (*NetCDFSource, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regrid: opening source %s: %v", path, err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("regrid: reading source %s: %v", path, err)
	}
	s := &NetCDFSource{ff: ff, f: f}
	switch {
	case hasVariable(f, "x1"):
		s.Layout = LayoutCISM
	case hasVariable(f, "xCell"):
		s.Layout = LayoutMPAS
	default:
		ff.Close()
		return nil, configErrorf("source %s has neither x1 nor xCell; cannot determine its layout", path)
	}
	return s, nil
}

func (s *NetCDFSource) Close() error { return s.ff.Close() }

// Axis returns one coordinate vector (x1, y1, x0, y0) from a CISM-layout
// source.
func (s *NetCDFSource) Axis(name string) ([]float64, error) {
	return readFloat64s(s.f, name)
}

// HasVariable reports whether the file carries the named variable.
func (s *NetCDFSource) HasVariable(name string) bool { return hasVariable(s.f, name) }

// CellCenters returns the xCell/yCell points of an MPAS-layout source.
func (s *NetCDFSource) CellCenters() ([]vec2d.T, error) {
	return readCellCenters(s.f)
}

// HasField implements Source.
func (s *NetCDFSource) HasField(name string) bool { return hasVariable(s.f, name) }

// Field implements Source. Variables with a leading time dimension are
// hyperslabbed at timeIndex; static variables ignore it.
func (s *NetCDFSource) Field(name string, timeIndex int, layered bool) (*sparse.DenseArray, error) {
	vals, dims, err := readSnapshot(s.f, name, timeIndex)
	if err != nil {
		return nil, err
	}

	switch s.Layout {
	case LayoutCISM:
		if layered {
			if len(dims) != 3 {
				return nil, configErrorf("layered field %s has %d non-time dimensions, expected (level, y, x)", name, len(dims))
			}
			out := sparse.ZerosDense(dims[0], dims[1]*dims[2])
			copy(out.Elements, vals)
			return out, nil
		}
		if len(dims) != 2 {
			return nil, configErrorf("field %s has %d non-time dimensions, expected (y, x)", name, len(dims))
		}
		out := sparse.ZerosDense(dims[0] * dims[1])
		copy(out.Elements, vals)
		return out, nil
	default: // LayoutMPAS
		if layered {
			if len(dims) != 2 {
				return nil, configErrorf("layered field %s has %d non-time dimensions, expected (cell, level)", name, len(dims))
			}
			nc, nz := dims[0], dims[1]
			out := sparse.ZerosDense(nz, nc)
			for c := 0; c < nc; c++ {
				for z := 0; z < nz; z++ {
					out.Elements[z*nc+c] = vals[c*nz+z]
				}
			}
			return out, nil
		}
		if len(dims) != 1 {
			return nil, configErrorf("field %s has %d non-time dimensions, expected (cell)", name, len(dims))
		}
		out := sparse.ZerosDense(dims[0])
		copy(out.Elements, vals)
		return out, nil
	}
}

// LayerCoordinates implements Source. CISM files carry an explicit coordinate
// variable named after the field's level dimension; MPAS files synthesize
// sigma levels from layerThicknessFractions.
func (s *NetCDFSource) LayerCoordinates(name string, layers int) ([]float64, error) {
	if s.Layout == LayoutCISM {
		dims := s.f.Header.Dimensions(name)
		if len(dims) > 0 && (dims[0] == "time" || dims[0] == "Time") {
			dims = dims[1:]
		}
		if len(dims) == 0 {
			return nil, configErrorf("field %s has no vertical dimension", name)
		}
		levelDim := dims[0]
		if !hasVariable(s.f, levelDim) {
			return nil, configErrorf("field %s has vertical dimension %s but the file carries no coordinate variable of that name", name, levelDim)
		}
		coord, err := readFloat64s(s.f, levelDim)
		if err != nil {
			return nil, err
		}
		if len(coord) != layers {
			return nil, configErrorf("coordinate variable %s has %d levels but field %s has %d layers", levelDim, len(coord), name, layers)
		}
		return coord, nil
	}

	fractions, err := readFloat64s(s.f, "layerThicknessFractions")
	if err != nil {
		return nil, err
	}
	switch layers {
	case len(fractions):
		return LayerCenters(fractions), nil
	case len(fractions) + 1:
		return LayerInterfaces(fractions), nil
	}
	return nil, configErrorf("field %s has %d layers, which matches neither the %d layer centers nor the %d interfaces", name, layers, len(fractions), len(fractions)+1)
}

// NetCDFDestination writes interpolated fields into an existing MPAS-layout
// file in place.
type NetCDFDestination struct {
	ff *os.File
	f  *cdf.File
}

// OpenDestination opens a destination mesh file for update. The file must
// already define the mesh (xCell, yCell) and every variable to be written.
func OpenDestination(path string) (*NetCDFDestination, error) {
	ff, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("regrid: opening destination %s: %v", path, err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("regrid: reading destination %s: %v", path, err)
	}
	if !hasVariable(f, "xCell") || !hasVariable(f, "yCell") {
		ff.Close()
		return nil, configErrorf("destination %s does not carry xCell/yCell cell centers", path)
	}
	return &NetCDFDestination{ff: ff, f: f}, nil
}

// Close flushes the record count and closes the file.
func (d *NetCDFDestination) Close() error {
	if err := cdf.UpdateNumRecs(d.ff); err != nil {
		d.ff.Close()
		return fmt.Errorf("regrid: updating destination record count: %v", err)
	}
	return d.ff.Close()
}

// CellCenters returns the destination mesh cell centers.
func (d *NetCDFDestination) CellCenters() ([]vec2d.T, error) {
	return readCellCenters(d.f)
}

// HasField implements Destination.
func (d *NetCDFDestination) HasField(name string) bool { return hasVariable(d.f, name) }

// VerticalCoordinates implements Destination, synthesizing sigma levels from
// layerThicknessFractions according to the field's vertical dimension.
func (d *NetCDFDestination) VerticalCoordinates(name string) ([]float64, error) {
	fractions, err := readFloat64s(d.f, "layerThicknessFractions")
	if err != nil {
		return nil, err
	}
	for _, dim := range d.f.Header.Dimensions(name) {
		switch dim {
		case "nVertLevels":
			return LayerCenters(fractions), nil
		case "nVertInterfaces":
			return LayerInterfaces(fractions), nil
		}
	}
	return nil, configErrorf("field %s has no recognized vertical dimension", name)
}

// Write implements Destination. Variables with a leading Time dimension are
// written one record at a time; static variables are overwritten whole.
func (d *NetCDFDestination) Write(name string, timeIndex int, data *sparse.DenseArray) error {
	dims := d.f.Header.Dimensions(name)
	end := d.f.Header.Lengths(name)
	begin := make([]int, len(end))
	if len(dims) > 0 && (dims[0] == "Time" || dims[0] == "time") {
		begin[0], end[0] = timeIndex, timeIndex+1
	}
	n := 1
	for i := range end {
		n *= end[i] - begin[i]
	}
	if n != len(data.Elements) {
		return configErrorf("variable %s expects %d values per record but %d were computed", name, n, len(data.Elements))
	}

	buf := d.f.Header.ZeroValue(name, len(data.Elements))
	switch b := buf.(type) {
	case []float64:
		copy(b, data.Elements)
	case []float32:
		for i, v := range data.Elements {
			b[i] = float32(v)
		}
	case []int32:
		for i, v := range data.Elements {
			b[i] = int32(v)
		}
	default:
		return configErrorf("variable %s has unsupported type %T", name, buf)
	}
	if _, err := d.f.Writer(name, begin, end).Write(buf); err != nil {
		return fmt.Errorf("regrid: writing variable %s: %v", name, err)
	}
	return nil
}

// ReadSparseWeights loads the S/row/col triples from an externally generated
// (e.g. ESMF) weight file.
func ReadSparseWeights(path string) (*SparseWeights, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("regrid: opening weight file %s: %v", path, err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("regrid: reading weight file %s: %v", path, err)
	}

	s, err := readFloat64s(f, "S")
	if err != nil {
		return nil, err
	}
	row, err := readInt32s(f, "row")
	if err != nil {
		return nil, err
	}
	col, err := readInt32s(f, "col")
	if err != nil {
		return nil, err
	}
	return NewSparseWeights(s, row, col)
}

func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

func readCellCenters(f *cdf.File) ([]vec2d.T, error) {
	x, err := readFloat64s(f, "xCell")
	if err != nil {
		return nil, err
	}
	y, err := readFloat64s(f, "yCell")
	if err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, configErrorf("xCell has %d cells but yCell has %d", len(x), len(y))
	}
	return PointSet(x, y)
}

// readSnapshot reads one time level of a variable, or the whole variable if
// it has no leading time dimension, returning the values as float64 together
// with the non-time dimension lengths.
func readSnapshot(f *cdf.File, name string, timeIndex int) ([]float64, []int, error) {
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, nil, configErrorf("variable %s not in file", name)
	}
	names := f.Header.Dimensions(name)
	var start, end []int
	if names[0] == "time" || names[0] == "Time" {
		dims = dims[1:]
		start, end = make([]int, len(dims)+1), make([]int, len(dims)+1)
		start[0], end[0] = timeIndex, timeIndex+1
	}

	nread := 1
	for _, d := range dims {
		nread *= d
	}
	r := f.Reader(name, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("regrid: reading variable %s: %v", name, err)
	}
	vals, err := toFloat64s(name, buf)
	if err != nil {
		return nil, nil, err
	}
	return vals, dims, nil
}

func readFloat64s(f *cdf.File, name string) ([]float64, error) {
	if len(f.Header.Lengths(name)) == 0 {
		return nil, configErrorf("variable %s not in file", name)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("regrid: reading variable %s: %v", name, err)
	}
	return toFloat64s(name, buf)
}

func readInt32s(f *cdf.File, name string) ([]int32, error) {
	if len(f.Header.Lengths(name)) == 0 {
		return nil, configErrorf("variable %s not in file", name)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("regrid: reading variable %s: %v", name, err)
	}
	switch b := buf.(type) {
	case []int32:
		return b, nil
	case []int64:
		out := make([]int32, len(b))
		for i, v := range b {
			out[i] = int32(v)
		}
		return out, nil
	}
	return nil, configErrorf("variable %s has unsupported type %T for an index variable", name, buf)
}

func toFloat64s(name string, buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, configErrorf("variable %s has unsupported type %T", name, buf)
}
