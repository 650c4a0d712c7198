package chem

import "fmt"

// Element describes a chemical element (or the exchanger site
// pseudo-element X used by ion exchange databases).
type Element struct {
	Symbol    string
	Name      string
	MolarMass float64 // kg/mol
}

// periodicTable holds the elements covered by the bundled databases.
// Molar masses are in kg/mol.
var periodicTable = map[string]Element{
	"H":  {"H", "Hydrogen", 0.001008},
	"He": {"He", "Helium", 0.0040026},
	"Li": {"Li", "Lithium", 0.00694},
	"B":  {"B", "Boron", 0.010811},
	"C":  {"C", "Carbon", 0.0120107},
	"N":  {"N", "Nitrogen", 0.0140067},
	"O":  {"O", "Oxygen", 0.0159994},
	"F":  {"F", "Fluorine", 0.018998},
	"Na": {"Na", "Sodium", 0.02298977},
	"Mg": {"Mg", "Magnesium", 0.024305},
	"Al": {"Al", "Aluminum", 0.02698154},
	"Si": {"Si", "Silicon", 0.0280855},
	"P":  {"P", "Phosphorus", 0.030973762},
	"S":  {"S", "Sulfur", 0.032065},
	"Cl": {"Cl", "Chlorine", 0.0354527},
	"K":  {"K", "Potassium", 0.0390983},
	"Ca": {"Ca", "Calcium", 0.040078},
	"Mn": {"Mn", "Manganese", 0.054938},
	"Fe": {"Fe", "Iron", 0.055847},
	"Cu": {"Cu", "Copper", 0.063546},
	"Zn": {"Zn", "Zinc", 0.06539},
	"Br": {"Br", "Bromine", 0.079904},
	"Sr": {"Sr", "Strontium", 0.08762},
	"Ba": {"Ba", "Barium", 0.137327},

	// Exchanger site marker. Carries no mass of its own; the mass of an
	// exchange species comes from the sorbed cation.
	"X": {"X", "Exchanger", 0.0},
}

// LookupElement returns the element with the given symbol.
func LookupElement(symbol string) (Element, error) {
	e, ok := periodicTable[symbol]
	if !ok {
		return Element{}, fmt.Errorf("unknown element symbol %q", symbol)
	}
	return e, nil
}

// KnownElement reports whether symbol names a supported element.
func KnownElement(symbol string) bool {
	_, ok := periodicTable[symbol]
	return ok
}
