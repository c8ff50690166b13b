// Package kernel contains the covariance functions used to build Gaussian
// process models. Each kernel supports two evaluation modes: the full cross
// covariance matrix between two batches of inputs and the diagonal of the
// self covariance. Positive parameters are exposed to the optimizer on a
// log scale so that gradient steps cannot leave the valid domain.
package kernel

import (
	"fmt"
	"math"

	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// Kernel interface type represents a covariance function.
type Kernel interface {
	num.Trainable
	// Kind identifies the kernel for dispatch and config encoding.
	Kind() string
	// Matrix computes the cross covariance between the rows of x and x2.
	// A nil x2 requests the self covariance of x.
	Matrix(x, x2 mat.Matrix) *mat.Dense
	// Diag returns the diagonal of the self covariance of x.
	Diag(x mat.Matrix) []float64
	ToString() string
}

// RBF is the squared exponential kernel with a variance and one lengthscale
// per input dimension, or a single shared lengthscale.
type RBF struct {
	Variance     float64
	Lengthscales []float64
}

// Create a new RBF kernel with unit variance and the given lengthscales.
func NewRBF(lengthscales ...float64) *RBF {
	if len(lengthscales) == 0 {
		lengthscales = []float64{1}
	}
	return &RBF{Variance: 1, Lengthscales: lengthscales}
}

func (k *RBF) Kind() string { return "rbf" }

func (k *RBF) Matrix(x, x2 mat.Matrix) *mat.Dense {
	if x2 == nil {
		x2 = x
	}
	rx, _ := x.Dims()
	ry, _ := x2.Dims()
	dst := mat.NewDense(rx, ry, nil)
	num.SqDist(dst, x, x2, k.Lengthscales)
	dst.Apply(func(i, j int, d2 float64) float64 {
		return k.Variance * math.Exp(-0.5*d2)
	}, dst)
	return dst
}

func (k *RBF) Diag(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	d := make([]float64, r)
	for i := range d {
		d[i] = k.Variance
	}
	return d
}

func (k *RBF) NumParams() int { return 1 + len(k.Lengthscales) }

func (k *RBF) Params(dst []float64) {
	dst[0] = math.Log(k.Variance)
	for i, l := range k.Lengthscales {
		dst[1+i] = math.Log(l)
	}
}

func (k *RBF) SetParams(src []float64) {
	k.Variance = math.Exp(src[0])
	for i := range k.Lengthscales {
		k.Lengthscales[i] = math.Exp(src[1+i])
	}
}

func (k *RBF) ToString() string {
	return fmt.Sprintf("rbf {Variance:%.3g Lengthscales:%.3g}", k.Variance, k.Lengthscales)
}

// Linear is the dot product kernel scaled by a variance.
type Linear struct {
	Variance float64
}

func NewLinear() *Linear { return &Linear{Variance: 1} }

func (k *Linear) Kind() string { return "linear" }

func (k *Linear) Matrix(x, x2 mat.Matrix) *mat.Dense {
	if x2 == nil {
		x2 = x
	}
	rx, _ := x.Dims()
	ry, _ := x2.Dims()
	dst := mat.NewDense(rx, ry, nil)
	dst.Mul(x, x2.T())
	dst.Scale(k.Variance, dst)
	return dst
}

func (k *Linear) Diag(x mat.Matrix) []float64 {
	r, c := x.Dims()
	d := make([]float64, r)
	for i := 0; i < r; i++ {
		var dot float64
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			dot += v * v
		}
		d[i] = k.Variance * dot
	}
	return d
}

func (k *Linear) NumParams() int { return 1 }

func (k *Linear) Params(dst []float64) { dst[0] = math.Log(k.Variance) }

func (k *Linear) SetParams(src []float64) { k.Variance = math.Exp(src[0]) }

func (k *Linear) ToString() string {
	return fmt.Sprintf("linear {Variance:%.3g}", k.Variance)
}

// White is independent noise: diagonal self covariance, zero cross covariance.
type White struct {
	Variance float64
}

func NewWhite(variance float64) *White { return &White{Variance: variance} }

func (k *White) Kind() string { return "white" }

func (k *White) Matrix(x, x2 mat.Matrix) *mat.Dense {
	rx, _ := x.Dims()
	if x2 == nil {
		dst := mat.NewDense(rx, rx, nil)
		for i := 0; i < rx; i++ {
			dst.Set(i, i, k.Variance)
		}
		return dst
	}
	ry, _ := x2.Dims()
	return mat.NewDense(rx, ry, nil)
}

func (k *White) Diag(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	d := make([]float64, r)
	for i := range d {
		d[i] = k.Variance
	}
	return d
}

func (k *White) NumParams() int { return 1 }

func (k *White) Params(dst []float64) { dst[0] = math.Log(k.Variance) }

func (k *White) SetParams(src []float64) { k.Variance = math.Exp(src[0]) }

func (k *White) ToString() string {
	return fmt.Sprintf("white {Variance:%.3g}", k.Variance)
}

// Sum adds the covariances of its parts.
type Sum struct {
	Parts []Kernel
}

func NewSum(parts ...Kernel) *Sum { return &Sum{Parts: parts} }

func (k *Sum) Kind() string { return "sum" }

func (k *Sum) Matrix(x, x2 mat.Matrix) *mat.Dense {
	dst := k.Parts[0].Matrix(x, x2)
	for _, p := range k.Parts[1:] {
		dst.Add(dst, p.Matrix(x, x2))
	}
	return dst
}

func (k *Sum) Diag(x mat.Matrix) []float64 {
	d := k.Parts[0].Diag(x)
	for _, p := range k.Parts[1:] {
		for i, v := range p.Diag(x) {
			d[i] += v
		}
	}
	return d
}

func (k *Sum) NumParams() int {
	n := 0
	for _, p := range k.Parts {
		n += p.NumParams()
	}
	return n
}

func (k *Sum) Params(dst []float64) {
	for _, p := range k.Parts {
		p.Params(dst[:p.NumParams()])
		dst = dst[p.NumParams():]
	}
}

func (k *Sum) SetParams(src []float64) {
	for _, p := range k.Parts {
		p.SetParams(src[:p.NumParams()])
		src = src[p.NumParams():]
	}
}

func (k *Sum) ToString() string {
	s := "sum {"
	for i, p := range k.Parts {
		if i > 0 {
			s += " + "
		}
		s += p.ToString()
	}
	return s + "}"
}
