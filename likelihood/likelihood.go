// Package likelihood has the observation models which connect latent GP
// function values to data.
package likelihood

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/deepgp/deepgp/num"
)

// Softmax is the categorical likelihood over a fixed number of classes.
// Expectations under a Gaussian posterior on the latent functions are
// estimated by Monte Carlo with a caller supplied source, so repeated
// evaluations with the same seed are deterministic.
type Softmax struct {
	Classes int
}

// ExpectedLogProb estimates E[log p(y|f)] where f has the given per-class
// marginal mean and variance.
func (l Softmax) ExpectedLogProb(mean, vr []float64, y int32, samples int, rng *rand.Rand) float64 {
	f := make([]float64, l.Classes)
	var total float64
	for s := 0; s < samples; s++ {
		for c := range f {
			f[c] = mean[c] + math.Sqrt(vr[c])*rng.NormFloat64()
		}
		total += f[y] - num.LogSumExp(f)
	}
	return total / float64(samples)
}

// Probabilities estimates the predictive class probabilities by averaging
// the softmax over samples of the latent functions.
func (l Softmax) Probabilities(mean, vr []float64, samples int, rng *rand.Rand) []float64 {
	f := make([]float64, l.Classes)
	probs := make([]float64, l.Classes)
	for s := 0; s < samples; s++ {
		for c := range f {
			f[c] = mean[c] + math.Sqrt(vr[c])*rng.NormFloat64()
		}
		lse := num.LogSumExp(f)
		for c := range f {
			probs[c] += math.Exp(f[c] - lse)
		}
	}
	for c := range probs {
		probs[c] /= float64(samples)
	}
	return probs
}

func (l Softmax) NumParams() int { return 0 }

func (l Softmax) Params(dst []float64) {}

func (l Softmax) SetParams(src []float64) {}

func (l Softmax) String() string {
	return fmt.Sprintf("softmax {Classes:%d}", l.Classes)
}

// Gaussian is the homoskedastic noise model with a trainable variance.
type Gaussian struct {
	Variance float64
}

func NewGaussian(variance float64) *Gaussian {
	return &Gaussian{Variance: variance}
}

func (l *Gaussian) NumParams() int { return 1 }

func (l *Gaussian) Params(dst []float64) { dst[0] = math.Log(l.Variance) }

func (l *Gaussian) SetParams(src []float64) { l.Variance = math.Exp(src[0]) }

func (l *Gaussian) String() string {
	return fmt.Sprintf("gaussian {Variance:%.3g}", l.Variance)
}
