package regrid

import (
	"sort"

	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"
)

// sigmaTol is the nudge applied when the source vertical range misses the
// destination range by no more than floating-point roundoff. Without it a
// destination boundary level sitting a few ulps outside the source range
// would flat-extrapolate instead of interpolating.
const sigmaTol = 1e-6

// LayerCenters builds normalized sigma levels at the midpoint of each layer
// from layer thickness fractions.
func LayerCenters(fractions []float64) []float64 {
	c := make([]float64, len(fractions))
	if len(fractions) == 0 {
		return c
	}
	c[0] = 0.5 * fractions[0]
	for k := 1; k < len(fractions); k++ {
		c[k] = c[k-1] + 0.5*fractions[k-1] + 0.5*fractions[k]
	}
	return c
}

// LayerInterfaces builds normalized sigma levels at layer interfaces: the
// cumulative sum of the thickness fractions, from 0 at the top interface.
func LayerInterfaces(fractions []float64) []float64 {
	ifc := make([]float64, len(fractions)+1)
	for k := 1; k < len(ifc); k++ {
		ifc[k] = ifc[k-1] + fractions[k-1]
	}
	return ifc
}

// alignVerticalRange returns a copy of src whose endpoints are nudged by
// sigmaTol when they miss the destination range by less than that tolerance.
// A larger gap proceeds unchanged but is reported, since the whole
// out-of-range destination region will take a single boundary value.
func alignVerticalRange(src, dst []float64) []float64 {
	out := append([]float64(nil), src...)
	n := len(out)
	if n == 0 || len(dst) == 0 {
		return out
	}
	if out[0] > dst[0] {
		if out[0]-sigmaTol < dst[0] {
			out[0] -= sigmaTol
		} else {
			log.Warnf("source vertical minimum %v is above destination minimum %v; the first source layer will be used for the whole region below it", out[0], dst[0])
		}
	}
	if out[n-1] < dst[len(dst)-1] {
		if out[n-1]+sigmaTol > dst[len(dst)-1] {
			out[n-1] += sigmaTol
		} else {
			log.Warnf("source vertical maximum %v is below destination maximum %v; the last source layer will be used for the whole region above it", out[n-1], dst[len(dst)-1])
		}
	}
	return out
}

// RelayerColumn resamples one column of values from the source vertical
// coordinates onto the destination coordinates by monotone piecewise-linear
// interpolation. Both coordinate sequences must be non-decreasing.
// Destination coordinates outside the source range take the nearest boundary
// value (flat extrapolation, never linear).
func RelayerColumn(dstCoord, srcCoord, column []float64) []float64 {
	out := make([]float64, len(dstCoord))
	n := len(srcCoord)
	for i, q := range dstCoord {
		switch {
		case q <= srcCoord[0]:
			out[i] = column[0]
		case q >= srcCoord[n-1]:
			out[i] = column[n-1]
		default:
			j := sort.SearchFloat64s(srcCoord, q)
			d := srcCoord[j] - srcCoord[j-1]
			if d == 0 {
				out[i] = column[j]
				continue
			}
			t := (q - srcCoord[j-1]) / d
			out[i] = column[j-1] + t*(column[j]-column[j-1])
		}
	}
	return out
}

// Relayer resamples a (source layers x destination points) intermediate
// array onto the destination vertical coordinates, independently per
// horizontal point, returning a (destination points x destination levels)
// array. The boundary nudge is applied to a copy of the source coordinates.
func Relayer(layers *sparse.DenseArray, srcCoord, dstCoord []float64) (*sparse.DenseArray, error) {
	if len(layers.Shape) != 2 {
		return nil, configErrorf("vertical re-layering expects a 2-D (layers x points) array, got shape %v", layers.Shape)
	}
	nz, np := layers.Shape[0], layers.Shape[1]
	if nz != len(srcCoord) {
		return nil, configErrorf("field has %d layers but the source vertical coordinate has %d levels", nz, len(srcCoord))
	}
	if !sort.Float64sAreSorted(srcCoord) || !sort.Float64sAreSorted(dstCoord) {
		return nil, configErrorf("vertical coordinate sequences must be non-decreasing")
	}

	src := alignVerticalRange(srcCoord, dstCoord)
	out := sparse.ZerosDense(np, len(dstCoord))
	col := make([]float64, nz)
	for i := 0; i < np; i++ {
		for z := 0; z < nz; z++ {
			col[z] = layers.Elements[z*np+i]
		}
		copy(out.Elements[i*len(dstCoord):(i+1)*len(dstCoord)], RelayerColumn(dstCoord, src, col))
	}
	return out, nil
}
