package train

import (
	"math/rand"
	"testing"
	"time"

	"github.com/deepgp/deepgp/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// asymmetric quadratic bowl with minimum at (3, -1), ignores the batch
type quadratic struct {
	p [2]float64
}

func (q *quadratic) NumParams() int { return 2 }

func (q *quadratic) Params(dst []float64) { dst[0], dst[1] = q.p[0], q.p[1] }

func (q *quadratic) SetParams(src []float64) { q.p[0], q.p[1] = src[0], src[1] }

func (q *quadratic) Loss(x mat.Matrix, y []int32) float64 {
	return (q.p[0]-3)*(q.p[0]-3) + 4*(q.p[1]+1)*(q.p[1]+1)
}

// full batch form of the same bowl
func (q *quadratic) FullLoss() float64 { return q.Loss(nil, nil) }

type batchQuadratic struct{ quadratic }

func (q *batchQuadratic) Loss() float64 { return q.FullLoss() }

func testDataset() *data.Dataset {
	labels := make([]int32, 8)
	inputs := make([]float64, 8)
	d := data.NewMemory(2, []int{1}, labels, inputs)
	return data.NewDataset(d, 4, 0, true, rand.New(rand.NewSource(42)))
}

func TestZeroIterationsLeavesParams(t *testing.T) {
	model := &quadratic{p: [2]float64{0.5, 0.25}}
	Train(model, testDataset(), NewAdam(0.1), 0, nil)
	params := make([]float64, 2)
	model.Params(params)
	assert.Equal(t, []float64{0.5, 0.25}, params, "zero iterations must not touch parameters")
}

func TestTrainConverges(t *testing.T) {
	model := &quadratic{}
	rec := &Recorder{}
	Train(model, testDataset(), NewAdam(0.1), 500, rec)
	assert.InDelta(t, 3, model.p[0], 0.05)
	assert.InDelta(t, -1, model.p[1], 0.05)
	require.Equal(t, 500, len(rec.Stats))
	assert.Less(t, rec.Stats[len(rec.Stats)-1].Loss, rec.Stats[0].Loss)
}

func TestRecorderWindow(t *testing.T) {
	rec := &Recorder{LogEvery: 3}
	start := time.Now()
	rec.add(1, 2, start)
	rec.add(2, 4, start)
	assert.Equal(t, 2.0, rec.window.Count)
	assert.Equal(t, 3.0, rec.window.Mean, "window should track the mean loss since the last line")
	rec.add(3, 6, start)
	assert.Equal(t, 0.0, rec.window.Count, "logging should start a fresh window")
	require.Equal(t, 3, len(rec.Stats))
	assert.Equal(t, 6.0, rec.Stats[2].Loss)
}

func TestAdamStep(t *testing.T) {
	opt := NewAdam(0.1)
	params := []float64{1}
	opt.Step(params, []float64{2})
	// first bias-corrected step moves by the learning rate against the gradient
	assert.InDelta(t, 0.9, params[0], 1e-6)
}

func TestMinimize(t *testing.T) {
	model := &batchQuadratic{}
	res, err := Minimize(model, 200)
	require.NoError(t, err)
	assert.True(t, res.Converged, "status %v", res.Status)
	assert.InDelta(t, 3, model.p[0], 1e-4)
	assert.InDelta(t, -1, model.p[1], 1e-4)
	assert.InDelta(t, 0, res.Loss, 1e-6)
}

func TestMinimizeIterationCap(t *testing.T) {
	model := &batchQuadratic{}
	res, err := Minimize(model, 1)
	require.NoError(t, err)
	assert.False(t, res.Converged)
}
