// Package equilibrium computes chemical equilibrium states by Gibbs
// energy minimization. The solver works in log-amount space: unknowns
// are ln n for the reactive species plus one Lagrange multiplier per
// conserved component (elements and charge); mass-action and
// conservation residuals are driven to zero with a damped Newton
// method, and pure phases (minerals, gases of fixed activity) are
// handled with an outer phase-assemblage loop.
package equilibrium

import "fmt"

// Options controls the equilibrium calculation.
type Options struct {
	// Epsilon is the relative convergence tolerance on the mass-action
	// and conservation residuals.
	Epsilon float64

	// MaxIterations bounds the inner Newton iterations.
	MaxIterations int

	// MaxOuterIterations bounds the phase-assemblage updates
	// (precipitating or fully dissolving pure phases).
	MaxOuterIterations int

	// StepLimit caps the log-amount Newton step per iteration.
	StepLimit float64

	// AmountFloor is the smallest species amount carried by the solver.
	AmountFloor float64
}

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		Epsilon:            1e-9,
		MaxIterations:      200,
		MaxOuterIterations: 10,
		StepLimit:          4.0,
		AmountFloor:        1e-16,
	}
}

func (o Options) validate() error {
	if o.Epsilon <= 0 {
		return fmt.Errorf("equilibrium options: epsilon cannot be zero or negative")
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("equilibrium options: max iterations must be positive")
	}
	if o.AmountFloor <= 0 {
		return fmt.Errorf("equilibrium options: amount floor must be positive")
	}
	return nil
}
