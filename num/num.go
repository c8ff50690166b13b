// Package num contains the float64 numeric helpers shared by the kernel,
// model and training packages. Heavy lifting is delegated to gonum; this
// layer fixes the conventions: rows are samples, columns are features.
package num

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Trainable is anything exposing a flat vector of trainable parameters.
// Params and SetParams must agree on ordering so that a vector read with
// Params can be written back unchanged with SetParams.
type Trainable interface {
	NumParams() int
	Params(dst []float64)
	SetParams(src []float64)
}

// Prod returns the product of the dims in shape.
func Prod(shape []int) int {
	p := 1
	for _, d := range shape {
		p *= d
	}
	return p
}

// Argmax returns the index of the largest element in v.
func Argmax(v []float64) int {
	ix := 0
	for i, x := range v {
		if x > v[ix] {
			ix = i
		}
	}
	return ix
}

// Rows copies the given rows of x into a new dense matrix.
func Rows(x mat.Matrix, index []int) *mat.Dense {
	_, c := x.Dims()
	dst := mat.NewDense(len(index), c, nil)
	for i, ix := range index {
		for j := 0; j < c; j++ {
			dst.Set(i, j, x.At(ix, j))
		}
	}
	return dst
}

// SqDist fills dst[i,j] with the squared euclidean distance between row i of
// x and row j of y. If scale is non-nil each column q is divided by scale[q]
// first; a single element scale applies to every column.
func SqDist(dst *mat.Dense, x, y mat.Matrix, scale []float64) {
	rx, cx := x.Dims()
	ry, _ := y.Dims()
	for i := 0; i < rx; i++ {
		for j := 0; j < ry; j++ {
			var d2 float64
			for q := 0; q < cx; q++ {
				d := x.At(i, q) - y.At(j, q)
				if scale != nil {
					if len(scale) == 1 {
						d /= scale[0]
					} else {
						d /= scale[q]
					}
				}
				d2 += d * d
			}
			dst.Set(i, j, d2)
		}
	}
}

// Chol factorizes sym + jitter*I, retrying with 10x larger jitter up to
// three times before giving up.
func Chol(sym *mat.SymDense, jitter float64) (*mat.Cholesky, error) {
	n := sym.SymmetricDim()
	jittered := mat.NewSymDense(n, nil)
	var chol mat.Cholesky
	for try := 0; try < 4; try++ {
		jittered.CopySym(sym)
		for i := 0; i < n; i++ {
			jittered.SetSym(i, i, sym.At(i, i)+jitter)
		}
		if chol.Factorize(jittered) {
			return &chol, nil
		}
		jitter *= 10
	}
	return nil, errors.Errorf("num: matrix of size %d is not positive definite", n)
}

// Sym copies the upper triangle of a square dense matrix into a SymDense.
func Sym(x *mat.Dense) *mat.SymDense {
	n, c := x.Dims()
	if n != c {
		panic("num: Sym expects a square matrix")
	}
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, x.At(i, j))
		}
	}
	return s
}

// LogSumExp returns log(sum(exp(v))) computed stably.
func LogSumExp(v []float64) float64 {
	m := v[Argmax(v)]
	var sum float64
	for _, x := range v {
		sum += math.Exp(x - m)
	}
	return m + math.Log(sum)
}
