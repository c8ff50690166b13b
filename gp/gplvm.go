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
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// GPLVM is the Bayesian Gaussian process latent variable model. The latent
// coordinate of every observation has a Gaussian variational posterior
// (XMean, XVar) with a unit Gaussian prior. The bound over the mapping is
// the collapsed sparse bound using kernel expectations under q(X), so only
// the RBF kernel is supported.
type GPLVM struct {
	Settings
	Y      *mat.Dense // n x d observations
	Kern   *kernel.RBF
	Lik    *likelihood.Gaussian
	Points *inducing.Points // inducing locations in latent space
	XMean  *mat.Dense       // n x q variational means
	XVar   *mat.Dense       // n x q variational variances
}

// Create a new GPLVM. Latent means are initialised from the principal
// components of y, latent variances at 0.1, and the inducing points by
// clustering the initial means.
func NewGPLVM(y *mat.Dense, latentDim, numInducing int, s Settings, rng *rand.Rand) (*GPLVM, error) {
	n, _ := y.Dims()
	if numInducing > n {
		return nil, errors.Errorf("gp: %d inducing points for %d observations", numInducing, n)
	}
	xMean, err := num.PCA(y, latentDim)
	if err != nil {
		return nil, errors.Wrap(err, "gp: latent initialisation failed")
	}
	xVar := mat.NewDense(n, latentDim, nil)
	for i := 0; i < n; i++ {
		for q := 0; q < latentDim; q++ {
			xVar.Set(i, q, 0.1)
		}
	}
	scales := make([]float64, latentDim)
	for i := range scales {
		scales[i] = 1
	}
	return &GPLVM{
		Settings: s,
		Y:        mat.DenseCopyOf(y),
		Kern:     kernel.NewRBF(scales...),
		Lik:      likelihood.NewGaussian(0.1),
		Points:   inducing.FromKMeans(xMean, numInducing, inducing.InputSpace, rng),
		XMean:    xMean,
		XVar:     xVar,
	}, nil
}

// LatentMean returns the trained variational means of the latent coordinates.
func (m *GPLVM) LatentMean() *mat.Dense { return m.XMean }

// lengthscale for latent dim q (single shared scale or one per dim)
func (m *GPLVM) scale(q int) float64 {
	if len(m.Kern.Lengthscales) == 1 {
		return m.Kern.Lengthscales[0]
	}
	return m.Kern.Lengthscales[q]
}

// psiStats returns the kernel expectations under q(X): psi0 = sum E[k(x,x)],
// psi1[i,j] = E[k(x_i, z_j)] and psi2 = sum_i E[k(z,x_i) k(x_i,z)].
func (m *GPLVM) psiStats() (psi0 float64, psi1 *mat.Dense, psi2 *mat.SymDense) {
	n, q := m.XMean.Dims()
	nm := m.Points.Len()
	v := m.Kern.Variance
	z := m.Points.Z
	psi0 = float64(n) * v
	psi1 = mat.NewDense(n, nm, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nm; j++ {
			val := v
			for d := 0; d < q; d++ {
				l2 := m.scale(d) * m.scale(d)
				s := m.XVar.At(i, d)
				diff := m.XMean.At(i, d) - z.At(j, d)
				val *= math.Exp(-0.5*diff*diff/(l2+s)) / math.Sqrt(1+s/l2)
			}
			psi1.Set(i, j, val)
		}
	}
	psi2 = mat.NewSymDense(nm, nil)
	for j := 0; j < nm; j++ {
		for k := j; k < nm; k++ {
			var sum float64
			for i := 0; i < n; i++ {
				val := v * v
				for d := 0; d < q; d++ {
					l2 := m.scale(d) * m.scale(d)
					s := m.XVar.At(i, d)
					dz := z.At(j, d) - z.At(k, d)
					zbar := 0.5 * (z.At(j, d) + z.At(k, d))
					dm := m.XMean.At(i, d) - zbar
					val *= math.Exp(-dz*dz/(4*l2)-dm*dm/(l2+2*s)) / math.Sqrt(1+2*s/l2)
				}
				sum += val
			}
			psi2.SetSym(j, k, sum)
		}
	}
	return psi0, psi1, psi2
}

// Bound returns the collapsed variational lower bound on the log marginal
// likelihood. A failed factorization yields NaN.
func (m *GPLVM) Bound() float64 {
	n, d := m.Y.Dims()
	nm := m.Points.Len()
	sigma2 := m.Lik.Variance
	psi0, psi1, psi2 := m.psiStats()

	kmm := inducing.Kuu(m.Points, m.Kern)
	cholKmm, err := num.Chol(kmm, m.Jitter)
	if err != nil {
		return math.NaN()
	}
	// A = sigma2*Kmm + Psi2
	a := mat.NewSymDense(nm, nil)
	for i := 0; i < nm; i++ {
		for j := i; j < nm; j++ {
			a.SetSym(i, j, sigma2*kmm.At(i, j)+psi2.At(i, j))
		}
	}
	cholA, err := num.Chol(a, m.Jitter)
	if err != nil {
		return math.NaN()
	}

	var yty float64
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			v := m.Y.At(i, j)
			yty += v * v
		}
	}
	// tr(Y^T Psi1 A^-1 Psi1^T Y)
	var p1y mat.Dense
	p1y.Mul(psi1.T(), m.Y) // m x d
	var ainvP1y mat.Dense
	if err := cholA.SolveTo(&ainvP1y, &p1y); err != nil {
		return math.NaN()
	}
	var quad float64
	for i := 0; i < nm; i++ {
		for j := 0; j < d; j++ {
			quad += p1y.At(i, j) * ainvP1y.At(i, j)
		}
	}
	// tr(Kmm^-1 Psi2)
	var kinvPsi2 mat.Dense
	if err := cholKmm.SolveTo(&kinvPsi2, psi2); err != nil {
		return math.NaN()
	}
	var trKinvPsi2 float64
	for i := 0; i < nm; i++ {
		trKinvPsi2 += kinvPsi2.At(i, i)
	}

	df := float64(d)
	bound := -0.5*float64(n)*df*math.Log(2*math.Pi) -
		0.5*float64(n-nm)*df*math.Log(sigma2) +
		0.5*df*cholKmm.LogDet() -
		0.5*df*cholA.LogDet() -
		0.5*yty/sigma2 +
		0.5*quad/sigma2 -
		0.5*df*psi0/sigma2 +
		0.5*df*trKinvPsi2/sigma2
	return bound - m.klLatent()
}

// klLatent is KL(q(X) || N(0,I)) summed over observations and latent dims.
func (m *GPLVM) klLatent() float64 {
	n, q := m.XMean.Dims()
	var kl float64
	for i := 0; i < n; i++ {
		for d := 0; d < q; d++ {
			mu := m.XMean.At(i, d)
			s := m.XVar.At(i, d)
			kl += 0.5 * (mu*mu + s - math.Log(s) - 1)
		}
	}
	return kl
}

// Loss is the negative bound minimised by the batch optimizer.
func (m *GPLVM) Loss() float64 { return -m.Bound() }

func (m *GPLVM) NumParams() int {
	n, q := m.XMean.Dims()
	return 2*n*q + m.Kern.NumParams() + m.Points.NumParams() + m.Lik.NumParams()
}

func (m *GPLVM) Params(dst []float64) {
	xm := m.XMean.RawMatrix().Data
	copy(dst, xm)
	dst = dst[len(xm):]
	for i, s := range m.XVar.RawMatrix().Data {
		dst[i] = math.Log(s)
	}
	dst = dst[len(xm):]
	dst = take(dst, m.Kern)
	dst = take(dst, m.Points)
	take(dst, m.Lik)
}

func (m *GPLVM) SetParams(src []float64) {
	xm := m.XMean.RawMatrix().Data
	copy(xm, src)
	src = src[len(xm):]
	xv := m.XVar.RawMatrix().Data
	for i := range xv {
		xv[i] = math.Exp(src[i])
	}
	src = src[len(xv):]
	src = give(src, m.Kern)
	src = give(src, m.Points)
	give(src, m.Lik)
}

// Summary returns a table of the trainable parameter groups.
func (m *GPLVM) Summary() string {
	n, q := m.XMean.Dims()
	rows := []string{"== Parameters =="}
	add := func(name string, count int, desc string) {
		rows = append(rows, fmt.Sprintf(m.SummaryFmt, name, count, desc))
	}
	add("x_mean", n*q, fmt.Sprintf("[%d %d]", n, q))
	add("x_var", n*q, fmt.Sprintf("[%d %d]", n, q))
	add("kernel", m.Kern.NumParams(), m.Kern.ToString())
	add("inducing", m.Points.NumParams(), m.Points.String())
	add("noise", m.Lik.NumParams(), m.Lik.String())
	rows = append(rows, fmt.Sprintf("total trainable: %d", m.NumParams()))
	return strings.Join(rows, "\n")
}
