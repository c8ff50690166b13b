package stats

import (
	"math"
	"testing"
)

func TestAverage(t *testing.T) {
	var avg Average
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		avg.Add(x)
	}
	if avg.Mean != 5 {
		t.Errorf("mean: expect 5 got %g", avg.Mean)
	}
	if math.Abs(avg.StdDev-2.138) > 0.001 {
		t.Errorf("stddev: expect 2.138 got %g", avg.StdDev)
	}
}

func TestEMA(t *testing.T) {
	e := EMA(0)
	v := e.Add(10, 5)
	if v != 10 {
		t.Errorf("first value should pass through, got %g", v)
	}
	e = EMA(v)
	v = e.Add(4, 5)
	if math.Abs(v-8) > 1e-12 {
		t.Errorf("expect 8 got %g", v)
	}
}
