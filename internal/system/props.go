package system

import (
	"fmt"
	"math"

	"aquachem/internal/activity"
	"aquachem/internal/chem"
)

// Props holds the evaluated thermochemical properties of a state: the
// per-phase activity model outputs plus dimensionless chemical
// potentials mu/RT on the database reference scale.
type Props struct {
	sys     *System
	T       float64
	P       float64
	Amounts []float64

	// PhaseProps holds one activity.Props per phase.
	PhaseProps []*activity.Props
}

// evalProps runs every phase's activity model against the state.
func evalProps(st *State) (*Props, error) {
	p := &Props{
		sys:        st.sys,
		T:          st.t,
		P:          st.p,
		Amounts:    st.Amounts(),
		PhaseProps: make([]*activity.Props, len(st.sys.phases)),
	}
	for k, phase := range st.sys.phases {
		in := activity.Input{
			T:       st.t,
			P:       st.p,
			Species: phase.Species,
			Amounts: p.Amounts[phase.Offset : phase.Offset+len(phase.Species)],
		}
		out := activity.NewProps(len(phase.Species))
		if err := phase.Model(in, out); err != nil {
			return nil, fmt.Errorf("phase %q: %w", phase.Name, err)
		}
		p.PhaseProps[k] = out
	}
	return p, nil
}

// LnActivity returns ln a of the species at flattened index i.
func (p *Props) LnActivity(i int) float64 {
	k := p.sys.phaseOf[i]
	return p.PhaseProps[k].LnActivity[i-p.sys.phases[k].Offset]
}

// LnGamma returns ln gamma of the species at flattened index i.
func (p *Props) LnGamma(i int) float64 {
	k := p.sys.phaseOf[i]
	return p.PhaseProps[k].LnGamma[i-p.sys.phases[k].Offset]
}

// MuRT returns the dimensionless chemical potential mu/RT of the
// species at flattened index i: G0/(RT) + ln a.
func (p *Props) MuRT(i int) float64 {
	sp := p.sys.species[i]
	return sp.G0/(chem.GasConstant*p.T) + p.LnActivity(i)
}

// SpeciesActivity returns the activity of the named species.
func (p *Props) SpeciesActivity(name string) (float64, error) {
	i, err := p.sys.IndexOfSpecies(name)
	if err != nil {
		return 0, err
	}
	return math.Exp(p.LnActivity(i)), nil
}

// DlnaDlnn returns the ideal sensitivity d ln a_i / d ln n_k for two
// species in the same phase, and 0 across phases.
func (p *Props) DlnaDlnn(i, k int) float64 {
	pi := p.sys.phaseOf[i]
	if p.sys.phaseOf[k] != pi {
		return 0
	}
	off := p.sys.phases[pi].Offset
	return p.PhaseProps[pi].Ddn[i-off][k-off]
}
