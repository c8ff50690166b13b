package num

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestProd(t *testing.T) {
	if p := Prod([]int{28, 28, 1}); p != 784 {
		t.Errorf("expect 784 got %d", p)
	}
	if p := Prod(nil); p != 1 {
		t.Errorf("empty shape should give 1, got %d", p)
	}
}

func TestSqDist(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{0, 0, 3, 4})
	dst := mat.NewDense(2, 2, nil)
	SqDist(dst, x, x, nil)
	if dst.At(0, 1) != 25 || dst.At(1, 0) != 25 {
		t.Errorf("expect squared distance 25, got %g", dst.At(0, 1))
	}
	if dst.At(0, 0) != 0 || dst.At(1, 1) != 0 {
		t.Error("self distance should be zero")
	}
	// shared scale divides every column
	SqDist(dst, x, x, []float64{2})
	if dst.At(0, 1) != 6.25 {
		t.Errorf("expect 6.25 with scale 2, got %g", dst.At(0, 1))
	}
}

func TestChol(t *testing.T) {
	s := mat.NewSymDense(2, []float64{4, 2, 2, 3})
	chol, err := Chol(s, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	var x mat.VecDense
	b := mat.NewVecDense(2, []float64{1, 1})
	if err := chol.SolveVecTo(&x, b); err != nil {
		t.Fatal(err)
	}
	// check A x = b
	var ax mat.VecDense
	ax.MulVec(s, &x)
	for i := 0; i < 2; i++ {
		if math.Abs(ax.AtVec(i)-1) > 1e-6 {
			t.Errorf("solve residual too large: %g", ax.AtVec(i)-1)
		}
	}
}

func TestCholNotPSD(t *testing.T) {
	s := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	if _, err := Chol(s, 1e-10); err == nil {
		t.Error("expect an error for an indefinite matrix")
	}
}

func TestArgmax(t *testing.T) {
	if ix := Argmax([]float64{0.1, 0.7, 0.2}); ix != 1 {
		t.Errorf("expect 1 got %d", ix)
	}
}

func TestLogSumExp(t *testing.T) {
	got := LogSumExp([]float64{1000, 1000})
	want := 1000 + math.Log(2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expect %g got %g", want, got)
	}
}

func TestKMeans(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	x := mat.NewDense(60, 1, nil)
	for i := 0; i < 60; i++ {
		x.Set(i, 0, float64(i%3)*10+0.1*rng.NormFloat64())
	}
	centers := KMeans(x, 3, rng)
	r, c := centers.Dims()
	if r != 3 || c != 1 {
		t.Fatalf("expect 3x1 centers got %dx%d", r, c)
	}
	found := 0
	for _, want := range []float64{0, 10, 20} {
		for i := 0; i < 3; i++ {
			if math.Abs(centers.At(i, 0)-want) < 1 {
				found++
				break
			}
		}
	}
	if found != 3 {
		t.Errorf("expect centers near 0, 10, 20 got %v", mat.Formatted(centers))
	}
}

func TestPCA(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := mat.NewDense(30, 5, nil)
	for i := 0; i < 30; i++ {
		base := rng.NormFloat64()
		for j := 0; j < 5; j++ {
			x.Set(i, j, base*float64(j+1)+0.01*rng.NormFloat64())
		}
	}
	proj, err := PCA(x, 2)
	if err != nil {
		t.Fatal(err)
	}
	r, c := proj.Dims()
	if r != 30 || c != 2 {
		t.Errorf("expect 30x2 projection got %dx%d", r, c)
	}
	// first component should carry most of the variance
	var v0, v1 float64
	for i := 0; i < 30; i++ {
		v0 += proj.At(i, 0) * proj.At(i, 0)
		v1 += proj.At(i, 1) * proj.At(i, 1)
	}
	if v0 < v1 {
		t.Errorf("components out of order: %g < %g", v0, v1)
	}
}
