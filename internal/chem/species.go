package chem

import "fmt"

// Species is a chemical species as registered in a thermodynamic
// database: a named formula with an aggregate state and a standard Gibbs
// energy of formation relative to the database's primary species.
type Species struct {
	// Name identifies the species within a database (e.g. "Na+", "CaX2",
	// "CO2(g)", "Calcite").
	Name string

	// Formula is the parsed chemical formula of the species.
	Formula Formula

	// Aggregate is the aggregate state of the species.
	Aggregate AggregateState

	// G0 is the standard Gibbs energy at 298.15 K in J/mol, on the
	// database's primary-species reference scale.
	G0 float64

	// Ion size (a, in angstrom) and b parameter for the extended
	// Debye-Hueckel activity term, when provided by the database.
	IonSize float64
	BDot    float64
}

// NewSpecies parses the given formula and returns a species with the
// name and aggregate state set.
func NewSpecies(name, formula string, state AggregateState) (Species, error) {
	f, err := ParseFormula(formula)
	if err != nil {
		return Species{}, fmt.Errorf("species %q: %w", name, err)
	}
	return Species{Name: name, Formula: f, Aggregate: state}, nil
}

// Charge returns the electric charge of the species.
func (s Species) Charge() float64 { return s.Formula.Charge }

// MolarMass returns the molar mass of the species in kg/mol.
func (s Species) MolarMass() float64 { return s.Formula.MolarMass }

// Elements returns the element coefficient map of the species.
func (s Species) Elements() map[string]float64 { return s.Formula.Elements }
