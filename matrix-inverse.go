package regrid

import (
	"gonum.org/v1/gonum/mat"
)

// invert2x2 inverts a row-major 2x2 matrix. ok is false when the matrix is
// singular, which for a barycentric transform means a degenerate triangle.
func invert2x2(x [4]float64) ([4]float64, bool) {
	a := mat.NewDense(2, 2, x[:])
	var ia mat.Dense

	if err := ia.Inverse(a); err != nil {
		return [4]float64{}, false
	}

	d := ia.RawMatrix().Data
	return [4]float64{d[0], d[1], d[2], d[3]}, true
}
