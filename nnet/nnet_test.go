package nnet

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testNet(t *testing.T) *Network {
	rng := rand.New(rand.NewSource(42))
	net := New([]int{8, 8, 1}, rng,
		Conv{Nfeats: 4, Size: 3, Pad: 1}.Marshal(),
		Activation{Atype: "relu"}.Marshal(),
		MaxPool{Size: 2}.Marshal(),
		Flatten{}.Marshal(),
		Linear{Nout: 5}.Marshal(),
		Activation{Atype: "tanh"}.Marshal(),
	)
	t.Log("\n" + net.String())
	return net
}

func TestShapes(t *testing.T) {
	net := testNet(t)
	if dim := net.OutDim(); dim != 5 {
		t.Errorf("expect output dim 5, got %d", dim)
	}
	x := mat.NewDense(3, 64, nil)
	out := net.Transform(x)
	r, c := out.Dims()
	if r != 3 || c != 5 {
		t.Errorf("expect 3x5 output, got %dx%d", r, c)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	net := testNet(t)
	n := net.NumParams()
	if n == 0 {
		t.Fatal("expect trainable parameters")
	}
	params := make([]float64, n)
	net.Params(params)
	// perturb then restore
	saved := append([]float64{}, params...)
	for i := range params {
		params[i] += 0.5
	}
	net.SetParams(params)
	net.SetParams(saved)
	check := make([]float64, n)
	net.Params(check)
	for i := range check {
		if check[i] != saved[i] {
			t.Fatalf("param %d changed: %g != %g", i, check[i], saved[i])
		}
	}
}

func TestActivationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := New([]int{4}, rng,
		Linear{Nout: 3}.Marshal(),
		Activation{Atype: "tanh"}.Marshal(),
	)
	x := mat.NewDense(10, 4, nil)
	for i := 0; i < 10; i++ {
		for j := 0; j < 4; j++ {
			x.Set(i, j, rng.NormFloat64()*10)
		}
	}
	out := net.Transform(x)
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := out.At(i, j); v < -1 || v > 1 {
				t.Errorf("tanh output out of range: %g", v)
			}
		}
	}
}
