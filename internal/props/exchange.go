package props

import (
	"fmt"
	"sort"
	"strings"

	"aquachem/internal/chem"
	"aquachem/internal/system"
)

// IonExchange exposes the exchanger composition of an equilibrated
// state: species amounts, charge equivalents and equivalent fractions.
type IonExchange struct {
	state *system.State
	phase system.Phase

	sites []float64 // exchanger site count per species
	total float64   // total equivalents
}

// NewIonExchange evaluates the ion exchange properties of a state.
func NewIonExchange(st *system.State) (*IonExchange, error) {
	phase, err := st.System().PhaseWithAggregate(chem.AggregateExchange)
	if err != nil {
		return nil, err
	}
	e := &IonExchange{state: st, phase: phase, sites: make([]float64, len(phase.Species))}
	amounts := st.Amounts()
	for i, sp := range phase.Species {
		x := sp.Elements()["X"]
		if x == 0 {
			return nil, fmt.Errorf("species %q carries no exchanger site", sp.Name)
		}
		e.sites[i] = x
		e.total += x * amounts[phase.Offset+i]
	}
	return e, nil
}

// SpeciesAmount returns the amount of an exchange species in mol.
func (e *IonExchange) SpeciesAmount(name string) (float64, error) {
	i, err := e.index(name)
	if err != nil {
		return 0, err
	}
	return e.state.Amounts()[e.phase.Offset+i], nil
}

// SpeciesEquivalents returns the exchanger equivalents bound by the
// species in mol: its amount times its site count.
func (e *IonExchange) SpeciesEquivalents(name string) (float64, error) {
	i, err := e.index(name)
	if err != nil {
		return 0, err
	}
	return e.sites[i] * e.state.Amounts()[e.phase.Offset+i], nil
}

// EquivalentFraction returns the fraction of exchanger equivalents
// bound by the species.
func (e *IonExchange) EquivalentFraction(name string) (float64, error) {
	eq, err := e.SpeciesEquivalents(name)
	if err != nil {
		return 0, err
	}
	if e.total == 0 {
		return 0, fmt.Errorf("exchanger is empty")
	}
	return eq / e.total, nil
}

// TotalEquivalents returns the exchanger capacity held by the phase in
// mol of charge equivalents.
func (e *IonExchange) TotalEquivalents() float64 { return e.total }

func (e *IonExchange) index(name string) (int, error) {
	for i, sp := range e.phase.Species {
		if sp.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("species %q is not in the exchange phase", name)
}

// String renders the exchanger composition as an aligned report.
func (e *IonExchange) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-26s %14.6e mol\n", "Total Equivalents", e.total)
	names := make([]string, 0, len(e.phase.Species))
	for _, sp := range e.phase.Species {
		names = append(names, sp.Name)
	}
	sort.Strings(names)
	b.WriteString("Species Amount / Equivalent Fraction:\n")
	for _, name := range names {
		n, _ := e.SpeciesAmount(name)
		beta, err := e.EquivalentFraction(name)
		if err != nil {
			beta = 0
		}
		fmt.Fprintf(&b, "  %-24s %14.6e mol %10.6f\n", name, n, beta)
	}
	return b.String()
}
