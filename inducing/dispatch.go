package inducing

import (
	"github.com/deepgp/deepgp/kernel"
	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// KufFunc computes the covariance between the inducing points and a batch
// of raw inputs. KuuFunc computes the covariance of the points with
// themselves.
type (
	KufFunc func(p *Points, k kernel.Kernel, x mat.Matrix) *mat.Dense
	KuuFunc func(p *Points, k kernel.Kernel) *mat.SymDense
)

type dispatchKey struct {
	space Space
	kind  string
}

var (
	kufTable = map[dispatchKey]KufFunc{}
	kuuTable = map[dispatchKey]KuuFunc{}
)

// RegisterKuf overrides the cross covariance computation for the given
// point space and kernel kind.
func RegisterKuf(space Space, kind string, f KufFunc) {
	kufTable[dispatchKey{space, kind}] = f
}

// RegisterKuu overrides the self covariance computation for the given
// point space and kernel kind.
func RegisterKuu(space Space, kind string, f KuuFunc) {
	kuuTable[dispatchKey{space, kind}] = f
}

// Kuf returns the m x n covariance between the inducing points and the rows
// of x. The base case treats the points as ordinary kernel inputs; kernels
// whose inputs are not in the same space as the points must register a
// specialisation.
func Kuf(p *Points, k kernel.Kernel, x mat.Matrix) *mat.Dense {
	if f, ok := kufTable[dispatchKey{p.Space, k.Kind()}]; ok {
		return f(p, k, x)
	}
	return k.Matrix(p.Z, x)
}

// Kuu returns the m x m self covariance of the inducing points.
func Kuu(p *Points, k kernel.Kernel) *mat.SymDense {
	if f, ok := kuuTable[dispatchKey{p.Space, k.Kind()}]; ok {
		return f(p, k)
	}
	return num.Sym(k.Matrix(p.Z, nil))
}

func init() {
	// Feature-space points with a deep kernel: the points already live in
	// the embedding, so only the raw batch goes through the feature map.
	// The generic path would wrongly transform the points as well.
	RegisterKuf(FeatureSpace, "deep", func(p *Points, k kernel.Kernel, x mat.Matrix) *mat.Dense {
		deep := k.(*kernel.Deep)
		return deep.Base.Matrix(p.Z, deep.Map.Transform(x))
	})
	RegisterKuu(FeatureSpace, "deep", func(p *Points, k kernel.Kernel) *mat.SymDense {
		deep := k.(*kernel.Deep)
		return num.Sym(deep.Base.Matrix(p.Z, nil))
	})
}
