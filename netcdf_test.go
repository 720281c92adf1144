package regrid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVar(t *testing.T, f *cdf.File, name string, begin, end []int, data interface{}) {
	t.Helper()
	if begin == nil && end == nil {
		end = f.Header.Lengths(name)
		begin = make([]int, len(end))
	}
	w := f.Writer(name, begin, end)
	_, err := w.Write(data)
	require.NoError(t, err)
}

// makeCISMFile writes a minimal structured-layout source: a 4x3 grid, a
// static 2-level coordinate, one time-dependent scalar field and one layered
// field.
func makeCISMFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cism.nc")

	h := cdf.NewHeader([]string{"time", "level", "y1", "x1"}, []int{0, 2, 3, 4})
	h.AddVariable("x1", []string{"x1"}, []float64{0})
	h.AddVariable("y1", []string{"y1"}, []float64{0})
	h.AddVariable("level", []string{"level"}, []float64{0})
	h.AddVariable("thk", []string{"time", "y1", "x1"}, []float64{0})
	h.AddVariable("tempstag", []string{"time", "level", "y1", "x1"}, []float32{0})
	h.Define()

	ff, err := os.Create(path)
	require.NoError(t, err)
	f, err := cdf.Create(ff, h)
	require.NoError(t, err)

	writeVar(t, f, "x1", nil, nil, []float64{0, 1, 2, 3})
	writeVar(t, f, "y1", nil, nil, []float64{0, 1, 2})
	writeVar(t, f, "level", nil, nil, []float64{0.25, 0.75})

	thk := make([]float64, 12)
	for i := range thk {
		thk[i] = float64(i)
	}
	writeVar(t, f, "thk", []int{0, 0, 0}, []int{1, 3, 4}, thk)

	temp := make([]float32, 24)
	for i := range temp {
		temp[i] = float32(i)
	}
	writeVar(t, f, "tempstag", []int{0, 0, 0, 0}, []int{1, 2, 3, 4}, temp)

	require.NoError(t, cdf.UpdateNumRecs(ff))
	require.NoError(t, ff.Close())
	return path
}

func TestNetCDFSourceCISM(t *testing.T) {
	src, err := OpenSource(makeCISMFile(t))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, LayoutCISM, src.Layout)
	assert.True(t, src.HasField("thk"))
	assert.False(t, src.HasField("nosuch"))

	x, err := src.Axis("x1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, x)

	thk, err := src.Field("thk", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{12}, thk.Shape)
	assert.Equal(t, 11.0, thk.Elements[11])

	temp, err := src.Field("tempstag", 0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 12}, temp.Shape, "layers leading, horizontal flattened")
	assert.Equal(t, 0.0, temp.Elements[0])
	assert.Equal(t, 12.0, temp.Elements[12], "second layer starts where the file's second level does")

	coord, err := src.LayerCoordinates("tempstag", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, coord)

	_, err = src.LayerCoordinates("tempstag", 5)
	assert.Error(t, err, "coordinate length must match the layer count")

	_, err = src.Field("thk", 0, true)
	assert.Error(t, err, "thk has no vertical dimension")
}

// makeMPASFile writes a minimal unstructured-layout file usable as both a
// source and a destination: 3 cells, 2 vertical levels.
func makeMPASFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landice.nc")

	h := cdf.NewHeader([]string{"Time", "nCells", "nVertLevels", "nVertInterfaces"}, []int{0, 3, 2, 3})
	h.AddVariable("xCell", []string{"nCells"}, []float64{0})
	h.AddVariable("yCell", []string{"nCells"}, []float64{0})
	h.AddVariable("layerThicknessFractions", []string{"nVertLevels"}, []float64{0})
	h.AddVariable("thickness", []string{"Time", "nCells"}, []float64{0})
	h.AddVariable("temperature", []string{"Time", "nCells", "nVertLevels"}, []float64{0})
	h.Define()

	ff, err := os.Create(path)
	require.NoError(t, err)
	f, err := cdf.Create(ff, h)
	require.NoError(t, err)

	writeVar(t, f, "xCell", nil, nil, []float64{0, 1, 2})
	writeVar(t, f, "yCell", nil, nil, []float64{0, 0, 1})
	writeVar(t, f, "layerThicknessFractions", nil, nil, []float64{0.5, 0.5})
	writeVar(t, f, "thickness", []int{0, 0}, []int{1, 3}, []float64{5, 6, 7})
	writeVar(t, f, "temperature", []int{0, 0, 0}, []int{1, 3, 2}, []float64{1, 2, 3, 4, 5, 6})

	require.NoError(t, cdf.UpdateNumRecs(ff))
	require.NoError(t, ff.Close())
	return path
}

func TestNetCDFSourceMPAS(t *testing.T) {
	src, err := OpenSource(makeMPASFile(t))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, LayoutMPAS, src.Layout)

	cells, err := src.CellCenters()
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, 2.0, cells[2][0])

	thk, err := src.Field("thickness", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 7}, thk.Elements)

	temp, err := src.Field("temperature", 0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, temp.Shape, "(cell, level) on disk becomes (level, cell)")
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, temp.Elements)

	centers, err := src.LayerCoordinates("temperature", 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, centers, 1e-15)

	interfaces, err := src.LayerCoordinates("temperature", 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, interfaces, 1e-15)

	_, err = src.LayerCoordinates("temperature", 7)
	assert.Error(t, err)
}

func TestNetCDFDestination(t *testing.T) {
	path := makeMPASFile(t)

	dst, err := OpenDestination(path)
	require.NoError(t, err)

	cells, err := dst.CellCenters()
	require.NoError(t, err)
	assert.Len(t, cells, 3)

	centers, err := dst.VerticalCoordinates("temperature")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, centers, 1e-15)

	_, err = dst.VerticalCoordinates("thickness")
	assert.Error(t, err, "thickness has no vertical dimension")

	require.NoError(t, dst.Write("thickness", 0, denseOf([]float64{9, 8, 7}, 3)))
	require.NoError(t, dst.Write("thickness", 1, denseOf([]float64{1, 2, 3}, 3)))
	err = dst.Write("thickness", 0, denseOf([]float64{1, 2}, 2))
	assert.Error(t, err, "value count must match the record size")
	require.NoError(t, dst.Close())

	// Read the records back through the source path.
	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()
	got, err := src.Field("thickness", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 8, 7}, got.Elements)
	got, err = src.Field("thickness", 1, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got.Elements)
}

func TestReadSparseWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.nc")

	h := cdf.NewHeader([]string{"n_s"}, []int{3})
	h.AddVariable("S", []string{"n_s"}, []float64{0})
	h.AddVariable("row", []string{"n_s"}, []int32{0})
	h.AddVariable("col", []string{"n_s"}, []int32{0})
	h.Define()

	ff, err := os.Create(path)
	require.NoError(t, err)
	f, err := cdf.Create(ff, h)
	require.NoError(t, err)
	writeVar(t, f, "S", nil, nil, []float64{0.5, 0.5, 1})
	writeVar(t, f, "row", nil, nil, []int32{1, 1, 2})
	writeVar(t, f, "col", nil, nil, []int32{0, 1, 2})
	require.NoError(t, ff.Close())

	w, err := ReadSparseWeights(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 1}, w.S)
	assert.Equal(t, []int32{1, 1, 2}, w.Row)
	assert.Equal(t, []int32{0, 1, 2}, w.Col)
}
