package system

import (
	"fmt"

	"aquachem/internal/chem"
)

// initialAmount is the trace amount every species starts with, so that
// logarithmic formulations stay defined before amounts are assigned.
const initialAmount = 1e-16

// State is the composition of a chemical system: species amounts in
// mol, temperature in K and pressure in Pa. After an equilibrium
// calculation the state also carries the conservation multipliers,
// from which redox properties such as pE derive.
type State struct {
	sys *System
	t   float64
	p   float64
	n   []float64

	multipliers []float64 // per formula matrix row; nil until equilibrated
}

// NewState returns a state at 25 C and 1 atm with every species at a
// trace amount.
func NewState(sys *System) *State {
	n := make([]float64, sys.NumSpecies())
	for i := range n {
		n[i] = initialAmount
	}
	return &State{sys: sys, t: chem.StandardTemperature, p: chem.StandardPressure, n: n}
}

// System returns the chemical system of the state.
func (st *State) System() *System { return st.sys }

// Temperature returns the temperature in K.
func (st *State) Temperature() float64 { return st.t }

// Pressure returns the pressure in Pa.
func (st *State) Pressure() float64 { return st.p }

// SetTemperature sets the temperature in the given unit.
func (st *State) SetTemperature(value float64, unit string) error {
	t, err := chem.TemperatureToKelvin(value, unit)
	if err != nil {
		return err
	}
	if t <= 0 {
		return fmt.Errorf("temperature must be positive, got %v K", t)
	}
	st.t = t
	return nil
}

// SetPressure sets the pressure in the given unit.
func (st *State) SetPressure(value float64, unit string) error {
	p, err := chem.PressureToPascal(value, unit)
	if err != nil {
		return err
	}
	if p <= 0 {
		return fmt.Errorf("pressure must be positive, got %v Pa", p)
	}
	st.p = p
	return nil
}

// Set assigns the amount of the named species in the given unit. Mass
// units convert through the species molar mass.
func (st *State) Set(name string, value float64, unit string) error {
	i, err := st.sys.IndexOfSpecies(name)
	if err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("amount of %q must be non-negative, got %v", name, value)
	}
	mol, err := chem.AmountToMoles(value, unit, st.sys.species[i].MolarMass())
	if err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	if mol < initialAmount {
		mol = initialAmount
	}
	st.n[i] = mol
	st.multipliers = nil
	return nil
}

// SpeciesAmount returns the amount of the named species in mol.
func (st *State) SpeciesAmount(name string) (float64, error) {
	i, err := st.sys.IndexOfSpecies(name)
	if err != nil {
		return 0, err
	}
	return st.n[i], nil
}

// Amounts returns a copy of the species amounts in mol.
func (st *State) Amounts() []float64 {
	out := make([]float64, len(st.n))
	copy(out, st.n)
	return out
}

// SetAmounts replaces all species amounts. Used by the equilibrium
// solver when writing back a solution.
func (st *State) SetAmounts(n []float64) error {
	if len(n) != len(st.n) {
		return fmt.Errorf("expected %d amounts, got %d", len(st.n), len(n))
	}
	copy(st.n, n)
	return nil
}

// ComponentAmounts returns b = A n: the amounts of each element in
// Elements() order followed by the total charge.
func (st *State) ComponentAmounts() []float64 {
	a := st.sys.FormulaMatrix()
	b := make([]float64, len(a))
	for j := range a {
		for i, ni := range st.n {
			b[j] += a[j][i] * ni
		}
	}
	return b
}

// ElementAmount returns the amount of one element in mol.
func (st *State) ElementAmount(symbol string) (float64, error) {
	for j, sym := range st.sys.Elements() {
		if sym == symbol {
			return st.ComponentAmounts()[j], nil
		}
	}
	return 0, fmt.Errorf("element %q not in system", symbol)
}

// Charge returns the total electric charge of the state in mol.
func (st *State) Charge() float64 {
	return st.ComponentAmounts()[st.sys.ChargeRow()]
}

// SetMultipliers records the conservation multipliers of an equilibrium
// solution (one per formula matrix row, in units of RT).
func (st *State) SetMultipliers(y []float64) {
	st.multipliers = make([]float64, len(y))
	copy(st.multipliers, y)
}

// Multipliers returns the equilibrium conservation multipliers, or nil
// when the state has not been equilibrated.
func (st *State) Multipliers() []float64 { return st.multipliers }

// Props evaluates the thermochemical properties of the state under the
// phases' activity models.
func (st *State) Props() (*Props, error) {
	return evalProps(st)
}
