package kinetics

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"aquachem/internal/equilibrium"
	"aquachem/internal/system"
)

// Sample is one point along a kinetic path.
type Sample struct {
	// Time in seconds since the start of the path.
	Time float64

	// PH of the aqueous phase at this point.
	PH float64

	// Amounts holds the mineral amounts in mol.
	Amounts map[string]float64

	// SaturationIndex holds log10 of the saturation ratio per mineral.
	SaturationIndex map[string]float64
}

// Path integrates mineral rate laws against aqueous chemistry with an
// operator-split scheme: the solution re-equilibrates with the kinetic
// minerals held fixed, then the rate laws advance the mineral amounts.
type Path struct {
	sys    *system.System
	solver *equilibrium.Solver
	params Params
	rates  []*Rate
	areas  []float64
	log    *zap.Logger
}

// pathEpsilon bounds the per-step solver tolerance from below. The
// operator split advances mineral amounts with first order error in
// the step size, so the step solves carry a matching residual.
const pathEpsilon = 1e-6

// NewPath returns a kinetic path for the system using the given rate
// parameter set.
func NewPath(sys *system.System, params Params) (*Path, error) {
	solver, err := equilibrium.NewSolver(sys)
	if err != nil {
		return nil, err
	}
	p := &Path{sys: sys, solver: solver, params: params, log: zap.NewNop()}
	if err := p.SetOptions(equilibrium.DefaultOptions()); err != nil {
		return nil, err
	}
	return p, nil
}

// SetOptions replaces the options of the embedded equilibrium solver.
// Tolerances tighter than the split error are relaxed to pathEpsilon.
func (p *Path) SetOptions(opts equilibrium.Options) error {
	if opts.Epsilon > 0 && opts.Epsilon < pathEpsilon {
		opts.Epsilon = pathEpsilon
	}
	return p.solver.SetOptions(opts)
}

// SetLogger attaches a logger for per-step diagnostics.
func (p *Path) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	p.log = log
}

// AddMineral registers a kinetically controlled mineral with its
// reactive surface area in m2.
func (p *Path) AddMineral(name string, area float64) error {
	if area <= 0 {
		return fmt.Errorf("kinetic path: surface area of %q must be positive", name)
	}
	rate, err := NewRate(p.sys, name, p.params)
	if err != nil {
		return err
	}
	p.rates = append(p.rates, rate)
	p.areas = append(p.areas, area)
	return nil
}

// Run integrates the path over the duration in seconds using the given
// number of equal steps. It mutates the state and returns one sample
// per step boundary, including the initial one.
func (p *Path) Run(ctx context.Context, st *system.State, duration float64, steps int) ([]Sample, error) {
	if len(p.rates) == 0 {
		return nil, fmt.Errorf("kinetic path has no minerals")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("kinetic path duration must be positive")
	}
	if steps <= 0 {
		return nil, fmt.Errorf("kinetic path needs at least one step")
	}

	restr := equilibrium.NewRestrictions(p.sys)
	for _, r := range p.rates {
		if err := restr.CannotReact(r.Mineral()); err != nil {
			return nil, err
		}
	}

	dt := duration / float64(steps)
	samples := make([]Sample, 0, steps+1)
	var conds *equilibrium.Conditions

	for step := 0; step <= steps; step++ {
		if err := ctx.Err(); err != nil {
			return samples, err
		}

		if _, err := p.solver.SolveWith(st, conds, restr); err != nil {
			return samples, fmt.Errorf("kinetic path step %d: %w", step, err)
		}

		sample, err := p.sample(st, float64(step)*dt)
		if err != nil {
			return samples, err
		}
		samples = append(samples, sample)
		if step == steps {
			break
		}

		// Element totals are captured before the rate update so the
		// dissolved mass transfers into the solution at the next solve.
		b := st.ComponentAmounts()

		pr, err := st.Props()
		if err != nil {
			return samples, err
		}
		updates := make(map[string]float64, len(p.rates))
		for k, r := range p.rates {
			lnOmega, err := r.LnOmega(st)
			if err != nil {
				return samples, err
			}
			n, err := st.SpeciesAmount(r.Mineral())
			if err != nil {
				return samples, err
			}
			next := n - r.Value(pr, st.Temperature(), lnOmega, p.areas[k])*dt
			if next < 0 {
				next = 0
			}
			updates[r.Mineral()] = next
		}
		for name, n := range updates {
			if err := st.Set(name, n, "mol"); err != nil {
				return samples, err
			}
		}

		conds = equilibrium.NewConditions()
		conds.SetComponentAmounts(b)

		p.log.Debug("kinetic step",
			zap.Int("step", step), zap.Float64("time_s", float64(step+1)*dt))
	}
	return samples, nil
}

func (p *Path) sample(st *system.State, t float64) (Sample, error) {
	pr, err := st.Props()
	if err != nil {
		return Sample{}, err
	}
	aH, err := pr.SpeciesActivity("H+")
	if err != nil {
		return Sample{}, err
	}
	s := Sample{
		Time:            t,
		PH:              -math.Log10(aH),
		Amounts:         make(map[string]float64, len(p.rates)),
		SaturationIndex: make(map[string]float64, len(p.rates)),
	}
	for _, r := range p.rates {
		n, err := st.SpeciesAmount(r.Mineral())
		if err != nil {
			return Sample{}, err
		}
		lnOmega, err := r.LnOmega(st)
		if err != nil {
			return Sample{}, err
		}
		s.Amounts[r.Mineral()] = n
		s.SaturationIndex[r.Mineral()] = lnOmega / math.Ln10
	}
	return s, nil
}
