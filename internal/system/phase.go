// Package system assembles multiphase chemical systems from a
// thermodynamic database: phase definitions, the formula (conservation)
// matrix, chemical states with unit-aware setters, and evaluated
// thermochemical properties.
package system

import (
	"strings"

	"aquachem/internal/activity"
	"aquachem/internal/chem"
)

// PhaseDef is a phase under construction: either an explicit species
// list or a set of element symbols to speciate from the database, plus
// the phase's activity model and classification.
type PhaseDef struct {
	name      string
	matter    chem.StateOfMatter
	aggregate chem.AggregateState
	names     []string
	elements  []string
	model     activity.Model
}

// splitList expands space-separated species lists, so both
// AqueousPhase("H2O Na+ Cl-") and AqueousPhase("H2O", "Na+") work.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, strings.Fields(item)...)
	}
	return out
}

// AqueousPhase defines an aqueous solution phase with the given species.
// The default activity model is the ideal aqueous model.
func AqueousPhase(species ...string) *PhaseDef {
	return &PhaseDef{
		name:      "AqueousPhase",
		matter:    chem.MatterLiquid,
		aggregate: chem.AggregateAqueous,
		names:     splitList(species),
		model:     activity.IdealAqueous(),
	}
}

// AqueousPhaseFromElements defines an aqueous phase speciated from
// element symbols. H and O are always included.
func AqueousPhaseFromElements(symbols ...string) *PhaseDef {
	p := AqueousPhase()
	p.names = nil
	p.elements = mergeSymbols(splitList(symbols), "H", "O")
	return p
}

// IonExchangePhase defines an ion exchange phase with the given
// exchange species. The default activity model is Gaines-Thomas.
func IonExchangePhase(species ...string) *PhaseDef {
	return &PhaseDef{
		name:      "IonExchangePhase",
		matter:    chem.MatterSolid,
		aggregate: chem.AggregateExchange,
		names:     splitList(species),
		model:     activity.IonExchangeGainesThomas(),
	}
}

// GaseousPhase defines a gaseous solution phase with the given species.
func GaseousPhase(species ...string) *PhaseDef {
	return &PhaseDef{
		name:      "GaseousPhase",
		matter:    chem.MatterGas,
		aggregate: chem.AggregateGas,
		names:     splitList(species),
		model:     activity.IdealGas(),
	}
}

// MineralPhase defines a pure mineral phase named after its species.
func MineralPhase(mineral string) *PhaseDef {
	return &PhaseDef{
		name:      mineral,
		matter:    chem.MatterSolid,
		aggregate: chem.AggregateSolid,
		names:     []string{mineral},
		model:     activity.IdealSolution(),
	}
}

// Named sets the phase name.
func (p *PhaseDef) Named(name string) *PhaseDef {
	p.name = name
	return p
}

// Set replaces the phase's activity model.
func (p *PhaseDef) Set(model activity.Model) *PhaseDef {
	p.model = model
	return p
}

// SetStateOfMatter overrides the phase's state of matter.
func (p *PhaseDef) SetStateOfMatter(m chem.StateOfMatter) *PhaseDef {
	p.matter = m
	return p
}

// SetAggregateState overrides the aggregate state used to resolve
// species against the database.
func (p *PhaseDef) SetAggregateState(a chem.AggregateState) *PhaseDef {
	p.aggregate = a
	return p
}

func mergeSymbols(symbols []string, extra ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(symbols, extra...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
