package kernel

import (
	"fmt"

	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// FeatureMap is a trainable non-linear transform from raw inputs to a lower
// dimensional embedding. Its parameters are only ever updated through the
// optimizer, never by the kernel itself.
type FeatureMap interface {
	num.Trainable
	Transform(x mat.Matrix) *mat.Dense
	OutDim() int
}

// Identity is the pass-through feature map.
type Identity struct {
	Dim int
}

func (m Identity) Transform(x mat.Matrix) *mat.Dense { return mat.DenseCopyOf(x) }

func (m Identity) OutDim() int { return m.Dim }

func (m Identity) NumParams() int { return 0 }

func (m Identity) Params(dst []float64) {}

func (m Identity) SetParams(src []float64) {}

// Deep composes a feature map with a base kernel. The base kernel only ever
// sees transformed inputs: raw batches are pushed through the map before any
// covariance is evaluated.
type Deep struct {
	Map  FeatureMap
	Base Kernel
}

// Create a new deep kernel from the feature map and base covariance.
func NewDeep(m FeatureMap, base Kernel) *Deep {
	return &Deep{Map: m, Base: base}
}

func (k *Deep) Kind() string { return "deep" }

func (k *Deep) Matrix(x, x2 mat.Matrix) *mat.Dense {
	fx := k.Map.Transform(x)
	if x2 == nil {
		// self covariance: transform once
		return k.Base.Matrix(fx, nil)
	}
	return k.Base.Matrix(fx, k.Map.Transform(x2))
}

func (k *Deep) Diag(x mat.Matrix) []float64 {
	return k.Base.Diag(k.Map.Transform(x))
}

func (k *Deep) NumParams() int {
	return k.Map.NumParams() + k.Base.NumParams()
}

func (k *Deep) Params(dst []float64) {
	n := k.Map.NumParams()
	k.Map.Params(dst[:n])
	k.Base.Params(dst[n:])
}

func (k *Deep) SetParams(src []float64) {
	n := k.Map.NumParams()
	k.Map.SetParams(src[:n])
	k.Base.SetParams(src[n:])
}

func (k *Deep) ToString() string {
	return fmt.Sprintf("deep {dim:%d base:%s}", k.Map.OutDim(), k.Base.ToString())
}
