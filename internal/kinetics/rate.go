package kinetics

import (
	"fmt"
	"math"

	"aquachem/internal/chem"
	"aquachem/internal/system"
)

// Rate is the compiled rate law of one mineral within a system.
type Rate struct {
	mineral    string
	index      int // flattened species index of the mineral
	g0         float64
	mechanisms []Mechanism
}

// NewRate compiles the rate law of the named mineral against the
// system. The mineral must be present as a species and have parameters.
func NewRate(sys *system.System, mineral string, params Params) (*Rate, error) {
	i, err := sys.IndexOfSpecies(mineral)
	if err != nil {
		return nil, fmt.Errorf("rate law: %w", err)
	}
	mp, ok := params.Minerals[mineral]
	if !ok {
		return nil, fmt.Errorf("rate law: no parameters for mineral %q", mineral)
	}
	return &Rate{
		mineral:    mineral,
		index:      i,
		g0:         sys.Species()[i].G0,
		mechanisms: mp.Mechanisms,
	}, nil
}

// Mineral returns the mineral name the rate law applies to.
func (r *Rate) Mineral() string { return r.mineral }

// LnOmega computes ln of the mineral saturation ratio from the
// equilibrium multipliers of a state. The state must have been
// equilibrated first.
func (r *Rate) LnOmega(st *system.State) (float64, error) {
	y := st.Multipliers()
	if y == nil {
		return 0, fmt.Errorf("rate law: state has no equilibrium multipliers")
	}
	a := st.System().FormulaMatrix()
	lnOmega := -r.g0 / (chem.GasConstant * st.Temperature())
	for j := range a {
		c := a[j][r.index]
		if c == 0 {
			continue
		}
		if math.IsNaN(y[j]) {
			return 0, fmt.Errorf("rate law: component of %q not constrained at equilibrium", r.mineral)
		}
		lnOmega += c * y[j]
	}
	return lnOmega, nil
}

// Value evaluates the surface-normalized dissolution rate in mol/s for
// the given reactive surface area in m2. Positive rates dissolve the
// mineral, negative rates precipitate it.
func (r *Rate) Value(props *system.Props, temperature, lnOmega, area float64) float64 {
	omega := math.Exp(lnOmega)
	var sum float64
	for _, mech := range r.mechanisms {
		k := math.Pow(10, mech.LgK) *
			math.Exp(-mech.ActivationEnergy*1e3/chem.GasConstant*
				(1/temperature-1/chem.StandardTemperature))
		for _, cat := range mech.Catalysts {
			act, err := props.SpeciesActivity(cat.Species)
			if err != nil {
				continue
			}
			k *= math.Pow(act, cat.Power)
		}
		p, q := mech.OmegaP, mech.OmegaQ
		if p == 0 {
			p = 1
		}
		if q == 0 {
			q = 1
		}
		drive := 1 - math.Pow(omega, p)
		sum += k * math.Copysign(math.Pow(math.Abs(drive), q), drive)
	}
	return area * sum
}
