// Package train runs the optimization loops: a minibatch first-order loop
// for the classifier and a capped L-BFGS batch call for the latent variable
// model. Gradients come from central finite differences; the models treat
// automatic differentiation as an external concern.
package train

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/deepgp/deepgp/data"
	"github.com/deepgp/deepgp/num"
	"github.com/deepgp/deepgp/stats"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Objective is a model trainable on minibatches.
type Objective interface {
	num.Trainable
	Loss(x mat.Matrix, y []int32) float64
}

// Training statistics for one logged iteration
type Stats struct {
	Iteration int
	Loss      float64
	AvgLoss   float64
	Elapsed   time.Duration
}

// Recorder accumulates per-iteration stats and optionally logs progress to
// stdout every LogEvery iterations. Each line reports the mean and spread of
// the loss over the window since the previous line.
type Recorder struct {
	Stats    []Stats
	LogEvery int
	avg      stats.EMA
	window   stats.Average
}

func (r *Recorder) add(iter int, loss float64, start time.Time) {
	avg := r.avg.Add(loss, 10)
	r.avg = stats.EMA(avg)
	r.window.Add(loss)
	s := Stats{Iteration: iter, Loss: loss, AvgLoss: avg, Elapsed: time.Since(start)}
	r.Stats = append(r.Stats, s)
	if r.LogEvery > 0 && iter%r.LogEvery == 0 {
		fmt.Printf("iter %5d:  loss %s  avg =%12.4f  (%s)\n",
			iter, r.window.String(), avg, s.Elapsed.Round(10*time.Millisecond))
		r.window = stats.Average{}
	}
}

// Losses returns the logged loss values in iteration order.
func (r *Recorder) Losses() []float64 {
	vals := make([]float64, len(r.Stats))
	for i, s := range r.Stats {
		vals[i] = s.Loss
	}
	return vals
}

// Train runs the fixed-count minibatch loop: draw a batch from the infinite
// shuffled stream, evaluate the loss gradient by central finite differences
// and apply one Adam step to all trainable parameters. There is no
// convergence check and no recovery: an undefined objective propagates NaN
// into the parameters. Zero iterations leaves the model untouched.
func Train(model Objective, dset *data.Dataset, opt *Adam, iters int, rec *Recorder) {
	n := model.NumParams()
	if n == 0 || iters <= 0 {
		return
	}
	params := make([]float64, n)
	grad := make([]float64, n)
	model.Params(params)
	settings := &fd.Settings{Formula: fd.Central}
	start := time.Now()
	for iter := 1; iter <= iters; iter++ {
		x, y := dset.NextBatch()
		loss := model.Loss(x, y)
		fd.Gradient(grad, func(p []float64) float64 {
			model.SetParams(p)
			return model.Loss(x, y)
		}, params, settings)
		opt.Step(params, grad)
		model.SetParams(params)
		if rec != nil {
			rec.add(iter, loss, start)
		}
	}
}

// Set random number seed, or seed from the clock if seed <= 0
func SetSeed(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	fmt.Println("random seed =", seed)
	return rand.New(rand.NewSource(seed))
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
