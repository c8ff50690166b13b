package gp

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/deepgp/deepgp/inducing"
	"github.com/deepgp/deepgp/kernel"
	"github.com/deepgp/deepgp/likelihood"
	"github.com/deepgp/deepgp/num"
	"gonum.org/v1/gonum/mat"
)

// SVGP is a sparse variational Gaussian process classifier. It owns the
// kernel, the categorical likelihood, the inducing points and a Gaussian
// variational posterior q(u) = N(qMu, L L^T) per output class. The model is
// constructed once and mutated in place by the optimizer.
type SVGP struct {
	Settings
	Kern    kernel.Kernel
	Lik     likelihood.Softmax
	Points  *inducing.Points
	NumData int
	qMu     *mat.Dense  // m x classes
	qSqrt   [][]float64 // packed lower triangle per class
}

// Create a new SVGP model. numData is the total training set size used to
// scale minibatch expectations. q(u) starts at the standard normal: zero
// mean, identity Cholesky factor.
func NewSVGP(kern kernel.Kernel, lik likelihood.Softmax, points *inducing.Points, numData int, s Settings) *SVGP {
	m := points.Len()
	model := &SVGP{
		Settings: s,
		Kern:     kern,
		Lik:      lik,
		Points:   points,
		NumData:  numData,
		qMu:      mat.NewDense(m, lik.Classes, nil),
		qSqrt:    make([][]float64, lik.Classes),
	}
	for c := range model.qSqrt {
		tri := make([]float64, m*(m+1)/2)
		for i := 0; i < m; i++ {
			tri[i*(i+1)/2+i] = 1
		}
		model.qSqrt[c] = tri
	}
	return model
}

// packed lower triangular index for row i, col j with j <= i
func triIndex(i, j int) int { return i*(i+1)/2 + j }

func (m *SVGP) triFactor(c int) *mat.TriDense {
	n := m.Points.Len()
	l := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			l.SetTri(i, j, m.qSqrt[c][triIndex(i, j)])
		}
	}
	return l
}

// posterior computes the marginal mean and variance of the latent functions
// at the rows of x for every class.
func (m *SVGP) posterior(x mat.Matrix) (mean, vr *mat.Dense, chol *mat.Cholesky, err error) {
	kuu := inducing.Kuu(m.Points, m.Kern)
	chol, err = num.Chol(kuu, m.Jitter)
	if err != nil {
		return nil, nil, nil, err
	}
	kuf := inducing.Kuf(m.Points, m.Kern, x)
	var a mat.Dense
	if err = chol.SolveTo(&a, kuf); err != nil {
		return nil, nil, nil, err
	}
	nm, nb := kuf.Dims()
	kdiag := m.Kern.Diag(x)
	mean = mat.NewDense(nb, m.Lik.Classes, nil)
	mean.Mul(a.T(), m.qMu)
	vr = mat.NewDense(nb, m.Lik.Classes, nil)
	common := make([]float64, nb)
	for i := 0; i < nb; i++ {
		v := kdiag[i]
		for j := 0; j < nm; j++ {
			v -= kuf.At(j, i) * a.At(j, i)
		}
		common[i] = v
	}
	var la mat.Dense
	for c := 0; c < m.Lik.Classes; c++ {
		l := m.triFactor(c)
		la.Mul(l.T(), &a)
		for i := 0; i < nb; i++ {
			v := common[i]
			for j := 0; j < nm; j++ {
				v += la.At(j, i) * la.At(j, i)
			}
			if v < m.Jitter {
				v = m.Jitter
			}
			vr.Set(i, c, v)
		}
	}
	return mean, vr, chol, nil
}

// ELBO returns the evidence lower bound evaluated on one minibatch, scaled
// to the full dataset size. A failed factorization yields NaN which the
// optimizer propagates unchanged.
func (m *SVGP) ELBO(x mat.Matrix, y []int32) float64 {
	mean, vr, chol, err := m.posterior(x)
	if err != nil {
		return math.NaN()
	}
	rng := rand.New(rand.NewSource(m.Seed))
	var ell float64
	for i := range y {
		ell += m.Lik.ExpectedLogProb(mean.RawRowView(i), vr.RawRowView(i), y[i], m.MCSamples, rng)
	}
	scale := float64(m.NumData) / float64(len(y))
	return scale*ell - m.klTerm(chol)
}

// Loss is the negative ELBO minimised in training.
func (m *SVGP) Loss(x mat.Matrix, y []int32) float64 {
	return -m.ELBO(x, y)
}

// klTerm sums KL(q(u) || p(u)) over the output classes.
func (m *SVGP) klTerm(chol *mat.Cholesky) float64 {
	nm := m.Points.Len()
	logDetKuu := chol.LogDet()
	var total float64
	for c := 0; c < m.Lik.Classes; c++ {
		l := m.triFactor(c)
		var kinvL mat.Dense
		if err := chol.SolveTo(&kinvL, l); err != nil {
			return math.NaN()
		}
		var trace, logDetS float64
		for i := 0; i < nm; i++ {
			for j := 0; j <= i; j++ {
				trace += kinvL.At(i, j) * l.At(i, j)
			}
			logDetS += 2 * math.Log(math.Abs(l.At(i, i)))
		}
		mu := m.qMu.ColView(c)
		var kinvMu mat.VecDense
		if err := chol.SolveVecTo(&kinvMu, mu); err != nil {
			return math.NaN()
		}
		quad := mat.Dot(mu, &kinvMu)
		total += 0.5 * (trace + quad - float64(nm) + logDetKuu - logDetS)
	}
	return total
}

// Predict returns the per-class latent mean and variance at the rows of x.
func (m *SVGP) Predict(x mat.Matrix) (mean, vr *mat.Dense, err error) {
	mean, vr, _, err = m.posterior(x)
	return mean, vr, err
}

// PredictClasses returns the most probable class for each row of x.
func (m *SVGP) PredictClasses(x mat.Matrix) ([]int32, error) {
	mean, vr, _, err := m.posterior(x)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(m.Seed))
	nb, _ := mean.Dims()
	classes := make([]int32, nb)
	for i := 0; i < nb; i++ {
		probs := m.Lik.Probabilities(mean.RawRowView(i), vr.RawRowView(i), m.MCSamples, rng)
		classes[i] = int32(num.Argmax(probs))
	}
	return classes, nil
}

// Accuracy is the fraction of predictions matching the labels.
func Accuracy(pred, label []int32) float64 {
	correct := 0
	for i, p := range pred {
		if p == label[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}

func (m *SVGP) NumParams() int {
	n := m.Kern.NumParams() + m.Points.NumParams() + m.Lik.NumParams()
	nm := m.Points.Len()
	n += nm * m.Lik.Classes
	n += len(m.qSqrt) * nm * (nm + 1) / 2
	return n
}

func (m *SVGP) Params(dst []float64) {
	dst = take(dst, m.Kern)
	dst = take(dst, m.Points)
	dst = take(dst, m.Lik)
	qm := m.qMu.RawMatrix().Data
	copy(dst, qm)
	dst = dst[len(qm):]
	for _, tri := range m.qSqrt {
		copy(dst, tri)
		dst = dst[len(tri):]
	}
}

func (m *SVGP) SetParams(src []float64) {
	src = give(src, m.Kern)
	src = give(src, m.Points)
	src = give(src, m.Lik)
	qm := m.qMu.RawMatrix().Data
	copy(qm, src)
	src = src[len(qm):]
	for _, tri := range m.qSqrt {
		copy(tri, src)
		src = src[len(tri):]
	}
}

func take(dst []float64, t num.Trainable) []float64 {
	t.Params(dst[:t.NumParams()])
	return dst[t.NumParams():]
}

func give(src []float64, t num.Trainable) []float64 {
	t.SetParams(src[:t.NumParams()])
	return src[t.NumParams():]
}

// Summary returns a table of the trainable parameter groups.
func (m *SVGP) Summary() string {
	nm := m.Points.Len()
	rows := []string{"== Parameters =="}
	add := func(name string, count int, desc string) {
		rows = append(rows, fmt.Sprintf(m.SummaryFmt, name, count, desc))
	}
	add("kernel", m.Kern.NumParams(), m.Kern.ToString())
	add("inducing", m.Points.NumParams(), m.Points.String())
	add("q_mu", nm*m.Lik.Classes, fmt.Sprintf("[%d %d]", nm, m.Lik.Classes))
	add("q_sqrt", len(m.qSqrt)*nm*(nm+1)/2, fmt.Sprintf("[%d %d lower]", len(m.qSqrt), nm))
	rows = append(rows, fmt.Sprintf("total trainable: %d", m.NumParams()))
	return strings.Join(rows, "\n")
}
