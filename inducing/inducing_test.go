package inducing

import (
	"math/rand"
	"testing"

	"github.com/deepgp/deepgp/kernel"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// feature map which negates its input, so transforming twice is detectable
type negMap struct{ dim int }

func (m negMap) Transform(x mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(x)
	out.Scale(-1, out)
	return out
}

func (m negMap) OutDim() int { return m.dim }

func (m negMap) NumParams() int { return 0 }

func (m negMap) Params(dst []float64) {}

func (m negMap) SetParams(src []float64) {}

func TestKufDeepDoesNotTransformPoints(t *testing.T) {
	base := kernel.NewLinear()
	deep := kernel.NewDeep(negMap{dim: 2}, base)
	z := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	points := New(z, FeatureSpace)
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	got := Kuf(points, deep, x)
	want := base.Matrix(z, deep.Map.Transform(x))
	assert.True(t, mat.EqualApprox(got, want, 1e-12), "Kuf should equal base(Z, f(X))")

	// the generic path would transform Z as well and flip the sign
	wrong := deep.Matrix(z, x)
	assert.False(t, mat.EqualApprox(got, wrong, 1e-9), "dispatch fell through to the generic path")
}

func TestKuuDeepDelegatesToBase(t *testing.T) {
	base := kernel.NewRBF(1)
	deep := kernel.NewDeep(negMap{dim: 2}, base)
	z := mat.NewDense(3, 2, []float64{0, 0, 1, 1, -1, 2})
	points := New(z, FeatureSpace)

	got := Kuu(points, deep)
	want := base.Matrix(z, nil)
	n := points.Len()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.InDelta(t, want.At(i, j), got.At(i, j), 1e-12)
		}
	}
}

func TestKufDefault(t *testing.T) {
	k := kernel.NewRBF(1)
	z := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	points := New(z, InputSpace)
	x := mat.NewDense(4, 2, []float64{0.5, 0.5, 1, 0, 0, 1, 2, 2})
	got := Kuf(points, k, x)
	want := k.Matrix(z, x)
	assert.True(t, mat.EqualApprox(got, want, 1e-12))
}

func TestFromKMeans(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := mat.NewDense(50, 2, nil)
	for i := 0; i < 50; i++ {
		cx := float64(i % 5)
		x.Set(i, 0, cx+0.01*rng.NormFloat64())
		x.Set(i, 1, -cx+0.01*rng.NormFloat64())
	}
	points := FromKMeans(x, 5, FeatureSpace, rng)
	assert.Equal(t, 5, points.Len())
	assert.Equal(t, FeatureSpace, points.Space)
}

func TestPointsParams(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	points := New(z, InputSpace)
	assert.Equal(t, 6, points.NumParams())
	params := make([]float64, 6)
	points.Params(params)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, params)
	params[0] = 9
	points.SetParams(params)
	assert.Equal(t, 9.0, z.At(0, 0))
}
