package regrid

import (
	"errors"
	"fmt"
)

// Method selects one of the supported horizontal interpolation strategies.
type Method string

const (
	Bilinear        Method = "bilinear"
	Barycentric     Method = "barycentric"
	NearestNeighbor Method = "nearest"
	SparseMatrix    Method = "esmf"
)

// ParseMethod accepts either the full method name or the single-letter
// shorthand used on the command line (b, d, n, e).
func ParseMethod(s string) (Method, error) {
	switch s {
	case "b", string(Bilinear):
		return Bilinear, nil
	case "d", string(Barycentric):
		return Barycentric, nil
	case "n", string(NearestNeighbor):
		return NearestNeighbor, nil
	case "e", string(SparseMatrix):
		return SparseMatrix, nil
	}
	return "", configErrorf("unknown interpolation method %q", s)
}

// GridType tags which source topology a field is defined on.
type GridType string

const (
	// GridPrimary is the unstaggered structured grid (CISM x1/y1).
	GridPrimary GridType = "x1"
	// GridStaggered is the velocity-staggered structured grid (CISM x0/y0).
	GridStaggered GridType = "x0"
	// GridCell is an unstructured set of mesh cell centers.
	GridCell GridType = "cell"
)

// FieldInfo describes how one destination field maps onto the source store.
type FieldInfo struct {
	// Name is the field name in the destination store.
	Name string
	// SourceName is the field name in the source store.
	SourceName string
	// ScaleFactor and Offset convert source units to destination units as
	// dst = src*ScaleFactor + Offset.
	ScaleFactor float64
	Offset      float64
	// Grid selects which source topology the field lives on.
	Grid GridType
	// HasVerticalDim marks fields carrying a vertical layer dimension.
	HasVerticalDim bool
	// ClampNonNegative forces interpolated values to be >= 0 after the
	// scale/offset step. Negative results are counted and reported.
	ClampNonNegative bool
}

var (
	// ErrTooFewPoints is returned when a point set cannot be triangulated.
	ErrTooFewPoints = errors.New("regrid: point set has fewer than 3 non-degenerate points")
	// ErrFieldMissing marks a field absent from the source or destination
	// store. It is a recoverable skip, not a fatal condition.
	ErrFieldMissing = errors.New("regrid: field not present")
)

// ConfigError is a fatal misconfiguration: an unknown method tag, an
// incompatible method/grid pairing, or missing required coordinate data.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "regrid: " + e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
