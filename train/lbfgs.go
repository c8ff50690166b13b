package train

import (
	"github.com/deepgp/deepgp/num"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// BatchObjective is a model optimized in one full-dataset call.
type BatchObjective interface {
	num.Trainable
	Loss() float64
}

// BatchResult reports the outcome of a batch optimization run.
type BatchResult struct {
	Converged  bool
	Status     optimize.Status
	Loss       float64
	Iterations int
}

// Minimize runs L-BFGS on the model's loss with a fixed iteration cap and
// writes the final parameters back into the model. Hitting the cap is not
// an error: the result reports Converged false with the final loss.
func Minimize(model BatchObjective, maxIter int) (BatchResult, error) {
	x0 := make([]float64, model.NumParams())
	model.Params(x0)
	eval := func(p []float64) float64 {
		model.SetParams(p)
		return model.Loss()
	}
	problem := optimize.Problem{
		Func: eval,
		Grad: func(grad, p []float64) {
			fd.Gradient(grad, eval, p, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{MajorIterations: maxIter}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return BatchResult{}, errors.Wrap(err, "train: batch optimization failed")
	}
	model.SetParams(result.X)
	res := BatchResult{
		Status:     result.Status,
		Loss:       result.F,
		Iterations: result.Stats.MajorIterations,
	}
	switch result.Status {
	case optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		res.Converged = true
	}
	if res.Status == optimize.IterationLimit {
		// capped run, finals are still valid
		err = nil
	}
	return res, err
}
