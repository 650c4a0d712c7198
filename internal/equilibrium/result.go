package equilibrium

// Result reports the outcome of an equilibrium calculation.
type Result struct {
	// Converged is true when all residuals dropped below the tolerance.
	Converged bool

	// Iterations is the total number of Newton iterations performed,
	// summed over assemblage updates.
	Iterations int

	// AssemblageUpdates counts how often a pure phase was added to or
	// removed from the stable assemblage.
	AssemblageUpdates int

	// Residual is the largest residual at the final iterate.
	Residual float64
}
