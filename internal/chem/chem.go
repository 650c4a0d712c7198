// Package chem provides the core chemistry types shared across aquachem:
// elements and molar masses, chemical formula parsing, species, aggregate
// states, and unit conversions for amounts, temperature and pressure.
package chem

// Universal physical constants (SI units).
const (
	// GasConstant is the universal gas constant R in J/(mol*K).
	GasConstant = 8.31446261815324

	// FaradayConstant is the Faraday constant in C/mol.
	FaradayConstant = 96485.33212331001

	// StandardTemperature is 25 celsius in K.
	StandardTemperature = 298.15

	// StandardPressure is 1 atm in Pa.
	StandardPressure = 101325.0

	// WaterMolarMass is the molar mass of H2O in kg/mol. It must equal
	// 2 H + O from the periodic table so that masses set through a
	// parsed H2O formula and solvent masses derived from this constant
	// agree exactly.
	WaterMolarMass = 0.0180154
)

// AggregateState classifies the physical aggregate state of a species.
type AggregateState int

const (
	AggregateUndefined AggregateState = iota
	AggregateAqueous
	AggregateGas
	AggregateSolid
	AggregateExchange
)

func (a AggregateState) String() string {
	switch a {
	case AggregateAqueous:
		return "aqueous"
	case AggregateGas:
		return "gas"
	case AggregateSolid:
		return "solid"
	case AggregateExchange:
		return "exchange"
	default:
		return "undefined"
	}
}

// StateOfMatter classifies the bulk state of a phase.
type StateOfMatter int

const (
	MatterSolid StateOfMatter = iota
	MatterLiquid
	MatterGas
)

func (s StateOfMatter) String() string {
	switch s {
	case MatterLiquid:
		return "liquid"
	case MatterGas:
		return "gas"
	default:
		return "solid"
	}
}
