// Package props derives reportable properties from equilibrated
// chemical states: pH, pE, ionic strength and molalities for aqueous
// phases, amounts and equivalent fractions for ion exchange phases.
package props

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"aquachem/internal/activity"
	"aquachem/internal/chem"
	"aquachem/internal/system"
)

// defaultPE is reported when the state carries no redox information at
// all: no determined charge multiplier and no electron species.
const defaultPE = 4.0

// Aqueous exposes the solution properties of the aqueous phase of an
// equilibrated state.
type Aqueous struct {
	state *system.State
	phase system.Phase
	props *system.Props
	water int // index of H2O within the phase
	kgw   float64
	ionic float64
}

// NewAqueous evaluates the aqueous properties of a state.
func NewAqueous(st *system.State) (*Aqueous, error) {
	phase, err := st.System().PhaseWithAggregate(chem.AggregateAqueous)
	if err != nil {
		return nil, err
	}
	p, err := st.Props()
	if err != nil {
		return nil, err
	}
	iw := activity.WaterIndex(phase.Species)
	if iw < 0 {
		return nil, fmt.Errorf("aqueous phase %q has no water", phase.Name)
	}
	amounts := st.Amounts()[phase.Offset : phase.Offset+len(phase.Species)]
	in := activity.Input{
		T:       st.Temperature(),
		P:       st.Pressure(),
		Species: phase.Species,
		Amounts: amounts,
	}
	return &Aqueous{
		state: st,
		phase: phase,
		props: p,
		water: iw,
		kgw:   amounts[iw] * phase.Species[iw].MolarMass(),
		ionic: activity.IonicStrength(in, iw),
	}, nil
}

// Temperature returns the temperature in K.
func (a *Aqueous) Temperature() float64 { return a.state.Temperature() }

// Pressure returns the pressure in Pa.
func (a *Aqueous) Pressure() float64 { return a.state.Pressure() }

// IonicStrength returns the solution ionic strength in mol/kgw.
func (a *Aqueous) IonicStrength() float64 { return a.ionic }

// PH returns -log10 of the hydrogen ion activity.
func (a *Aqueous) PH() (float64, error) {
	act, err := a.props.SpeciesActivity("H+")
	if err != nil {
		return 0, fmt.Errorf("pH: %w", err)
	}
	return -math.Log10(act), nil
}

// PE returns the electron activity scale of the solution. It derives
// from the charge conservation multiplier of the equilibrium solution
// when charge is an independent constraint; otherwise from the electron
// species activity when one exists; otherwise a conventional default.
func (a *Aqueous) PE() float64 {
	if y := a.state.Multipliers(); y != nil {
		yz := y[a.state.System().ChargeRow()]
		if !math.IsNaN(yz) {
			return yz / math.Ln10
		}
	}
	if act, err := a.props.SpeciesActivity("e-"); err == nil {
		return -math.Log10(act)
	}
	return defaultPE
}

// Eh returns the redox potential in volts corresponding to PE.
func (a *Aqueous) Eh() float64 {
	return a.PE() * math.Ln10 * chem.GasConstant * a.state.Temperature() / chem.FaradayConstant
}

// SpeciesMolality returns the molality of an aqueous solute in mol/kgw.
func (a *Aqueous) SpeciesMolality(name string) (float64, error) {
	for i, sp := range a.phase.Species {
		if sp.Name != name {
			continue
		}
		if i == a.water {
			return 0, fmt.Errorf("molality of the solvent is not defined")
		}
		n, err := a.state.SpeciesAmount(name)
		if err != nil {
			return 0, err
		}
		return n / a.kgw, nil
	}
	return 0, fmt.Errorf("species %q is not in the aqueous phase", name)
}

// ElementMolality returns the total molality of an element over the
// aqueous solutes in mol/kgw.
func (a *Aqueous) ElementMolality(symbol string) (float64, error) {
	found := false
	var total float64
	amounts := a.state.Amounts()
	for i, sp := range a.phase.Species {
		if i == a.water {
			continue
		}
		if coeff, ok := sp.Elements()[symbol]; ok && coeff > 0 {
			found = true
			total += coeff * amounts[a.phase.Offset+i]
		}
	}
	if !found {
		if _, err := a.state.ElementAmount(symbol); err != nil {
			return 0, err
		}
	}
	return total / a.kgw, nil
}

// String renders the aqueous properties as an aligned report.
func (a *Aqueous) String() string {
	var b strings.Builder
	line := func(label string, value float64, unit string) {
		fmt.Fprintf(&b, "%-26s %14.6e %s\n", label, value, unit)
	}
	line("Temperature", a.Temperature(), "K")
	line("Pressure", a.Pressure(), "Pa")
	line("Ionic Strength", a.IonicStrength(), "mol/kgw")
	if ph, err := a.PH(); err == nil {
		line("pH", ph, "")
	}
	line("pE", a.PE(), "")
	line("Eh", a.Eh(), "V")

	b.WriteString("Element Molality:\n")
	for _, sym := range a.state.System().Elements() {
		if sym == "H" || sym == "O" || sym == "X" {
			continue
		}
		if m, err := a.ElementMolality(sym); err == nil {
			line("  "+sym, m, "mol/kgw")
		}
	}

	b.WriteString("Species Molality:\n")
	names := make([]string, 0, len(a.phase.Species))
	for i, sp := range a.phase.Species {
		if i != a.water {
			names = append(names, sp.Name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if m, err := a.SpeciesMolality(name); err == nil {
			line("  "+name, m, "mol/kgw")
		}
	}
	return b.String()
}
