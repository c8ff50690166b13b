package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// feature map which scales every input by a constant
type scaleMap struct {
	factor float64
	dim    int
}

func (m scaleMap) Transform(x mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(x)
	out.Scale(m.factor, out)
	return out
}

func (m scaleMap) OutDim() int { return m.dim }

func (m scaleMap) NumParams() int { return 0 }

func (m scaleMap) Params(dst []float64) {}

func (m scaleMap) SetParams(src []float64) {}

func randBatch(r, c int, seed float64) *mat.Dense {
	x := mat.NewDense(r, c, nil)
	v := seed
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v = v*1.7 - 0.9
			if v > 2 {
				v -= 3
			}
			x.Set(i, j, v)
		}
	}
	return x
}

func TestDeepMatchesBase(t *testing.T) {
	base := NewRBF(0.7)
	deep := NewDeep(scaleMap{factor: 0.5, dim: 3}, base)
	a := randBatch(4, 3, 0.3)
	b := randBatch(6, 3, 1.1)

	got := deep.Matrix(a, b)
	fa := deep.Map.Transform(a)
	fb := deep.Map.Transform(b)
	want := base.Matrix(fa, fb)
	assert.True(t, mat.EqualApprox(got, want, 1e-12), "K(A,B) != base(f(A),f(B))")

	// self covariance transforms once and matches the two argument form
	self := deep.Matrix(a, nil)
	want = base.Matrix(fa, fa)
	assert.True(t, mat.EqualApprox(self, want, 1e-12))
}

func TestDeepDiagConsistency(t *testing.T) {
	deep := NewDeep(scaleMap{factor: 2, dim: 2}, NewLinear())
	a := randBatch(5, 2, 0.6)
	full := deep.Matrix(a, nil)
	diag := deep.Diag(a)
	for i := range diag {
		assert.InDelta(t, full.At(i, i), diag[i], 1e-12, "diag shortcut mismatch at %d", i)
	}
}

func TestLinearGramExact(t *testing.T) {
	// identity map, linear base, known 2 point batch
	deep := NewDeep(Identity{Dim: 2}, NewLinear())
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	k := deep.Matrix(x, nil)
	want := mat.NewDense(2, 2, []float64{5, 11, 11, 25})
	assert.True(t, mat.EqualApprox(k, want, 1e-12), "expect exact gram matrix, got %v", mat.Formatted(k))
}

func TestRBF(t *testing.T) {
	k := NewRBF(1.3)
	k.Variance = 2.5
	x := randBatch(6, 4, 0.2)
	km := k.Matrix(x, nil)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, 2.5, km.At(i, i), 1e-12, "self covariance should equal the variance")
		for j := 0; j < 6; j++ {
			assert.InDelta(t, km.At(j, i), km.At(i, j), 1e-12, "matrix should be symmetric")
			assert.LessOrEqual(t, km.At(i, j), 2.5+1e-12)
		}
	}
	for _, d := range k.Diag(x) {
		assert.Equal(t, 2.5, d)
	}
}

func TestWhite(t *testing.T) {
	k := NewWhite(0.01)
	x := randBatch(3, 2, 0.4)
	y := randBatch(4, 2, 0.9)
	cross := k.Matrix(x, y)
	assert.True(t, mat.EqualApprox(cross, mat.NewDense(3, 4, nil), 0), "cross covariance should be zero")
	self := k.Matrix(x, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.01, self.At(i, i))
	}
}

func TestParamsLogScale(t *testing.T) {
	k := NewRBF(2, 3)
	k.Variance = 4
	params := make([]float64, k.NumParams())
	k.Params(params)
	k2 := NewRBF(1, 1)
	k2.SetParams(params)
	assert.InDelta(t, 4.0, k2.Variance, 1e-12)
	assert.InDelta(t, 2.0, k2.Lengthscales[0], 1e-12)
	assert.InDelta(t, 3.0, k2.Lengthscales[1], 1e-12)
}

func TestConfigRoundTrip(t *testing.T) {
	k := NewRBF(0.5, 1.5)
	k.Variance = 2
	cfg := k.Marshal()
	restored := cfg.Unmarshal()
	require.IsType(t, &RBF{}, restored)
	r := restored.(*RBF)
	assert.Equal(t, k.Variance, r.Variance)
	assert.Equal(t, k.Lengthscales, r.Lengthscales)

	sum := NewSum(NewRBF(1), NewWhite(0.1))
	restored = sum.Marshal().Unmarshal()
	require.IsType(t, &Sum{}, restored)
	assert.Equal(t, 2, len(restored.(*Sum).Parts))
}
