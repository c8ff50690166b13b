// Package inducing holds the inducing point set used by the sparse models
// and the dispatch table which resolves how inducing covariances are
// computed for a given (point kind, kernel kind) pair.
package inducing

import (
	"fmt"
	"math/rand"

	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// Space identifies which space the inducing locations live in.
type Space string

const (
	// InputSpace points are compared to raw inputs directly.
	InputSpace Space = "input"
	// FeatureSpace points live in the embedding produced by a feature map
	// and must never be pushed through the map again.
	FeatureSpace Space = "feature"
)

// Points is a fixed-size set of landmark locations. The locations are
// trainable: they are initialised once and then updated jointly with all
// other model parameters.
type Points struct {
	Z     *mat.Dense
	Space Space
}

// Create a new inducing point set from the given locations.
func New(z *mat.Dense, space Space) *Points {
	return &Points{Z: z, Space: space}
}

// FromKMeans initialises m inducing points by clustering the rows of x.
func FromKMeans(x *mat.Dense, m int, space Space, rng *rand.Rand) *Points {
	return &Points{Z: num.KMeans(x, m, rng), Space: space}
}

// Len returns the number of inducing points.
func (p *Points) Len() int {
	m, _ := p.Z.Dims()
	return m
}

func (p *Points) NumParams() int {
	m, d := p.Z.Dims()
	return m * d
}

func (p *Points) Params(dst []float64) {
	copy(dst, p.Z.RawMatrix().Data)
}

func (p *Points) SetParams(src []float64) {
	copy(p.Z.RawMatrix().Data, src)
}

func (p *Points) String() string {
	m, d := p.Z.Dims()
	return fmt.Sprintf("inducing {%d points in %d dim %s space}", m, d, p.Space)
}
