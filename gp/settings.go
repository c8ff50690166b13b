// Package gp contains the sparse variational Gaussian process models: SVGP
// classification and the Bayesian GPLVM. The inference code works on plain
// float64 dense matrices with gonum supplying the linear algebra.
package gp

// Settings is the explicit numeric configuration threaded through the model
// constructors. There is no ambient package-level default state: every model
// owns the settings it was built with.
type Settings struct {
	Jitter     float64 // added to covariance diagonals before factorization
	MCSamples  int     // Monte Carlo samples for likelihood expectations
	Seed       int64   // seed for the deterministic sample stream
	SummaryFmt string  // row format for the parameter summary table
}

// DefaultSettings returns the settings used by the demo pipelines.
func DefaultSettings() Settings {
	return Settings{
		Jitter:     1e-6,
		MCSamples:  20,
		Seed:       42,
		SummaryFmt: "%-12s %10d  %s",
	}
}
