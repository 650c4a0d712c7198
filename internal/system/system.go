package system

import (
	"fmt"
	"sort"

	"aquachem/internal/activity"
	"aquachem/internal/chem"
	"aquachem/internal/database"
)

// Phase is a resolved phase within a chemical system.
type Phase struct {
	Name      string
	Matter    chem.StateOfMatter
	Aggregate chem.AggregateState
	Species   []chem.Species
	Model     activity.Model

	// Offset is the index of the phase's first species in the system's
	// flattened species slice.
	Offset int
}

// System is an immutable chemical system: phases resolved against a
// database, the flattened species list, and the formula matrix used for
// element and charge conservation.
type System struct {
	phases   []Phase
	species  []chem.Species
	phaseOf  []int
	elements []string
	index    map[string]int

	// formula matrix: one row per element, plus a trailing charge row;
	// one column per species.
	a [][]float64
}

// New builds a chemical system from a database and phase definitions.
func New(db *database.Database, defs ...*PhaseDef) (*System, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database")
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("a chemical system requires at least one phase")
	}

	sys := &System{index: make(map[string]int)}

	names := make(map[string]int)
	for _, def := range defs {
		phase, err := resolvePhase(db, def)
		if err != nil {
			return nil, err
		}
		names[phase.Name]++
		if n := names[phase.Name]; n > 1 {
			phase.Name = fmt.Sprintf("%s!%d", phase.Name, n)
		}
		phase.Offset = len(sys.species)
		for _, sp := range phase.Species {
			if _, dup := sys.index[sp.Name]; dup {
				return nil, fmt.Errorf("species %q appears in more than one phase", sp.Name)
			}
			sys.index[sp.Name] = len(sys.species)
			sys.species = append(sys.species, sp)
			sys.phaseOf = append(sys.phaseOf, len(sys.phases))
		}
		sys.phases = append(sys.phases, phase)
	}

	sys.collectElements()
	sys.buildFormulaMatrix()
	return sys, nil
}

// resolvePhase turns a phase definition into a concrete phase by looking
// up its species (or speciating its elements) in the database.
func resolvePhase(db *database.Database, def *PhaseDef) (Phase, error) {
	var species []chem.Species
	switch {
	case len(def.names) > 0:
		for _, name := range def.names {
			sp, err := db.SpeciesWithName(name)
			if err != nil {
				return Phase{}, fmt.Errorf("phase %q: %w", def.name, err)
			}
			species = append(species, sp)
		}
	case len(def.elements) > 0:
		for _, sp := range db.SpeciesWithElements(def.elements) {
			if sp.Aggregate == def.aggregate {
				species = append(species, sp)
			}
		}
		if len(species) == 0 {
			return Phase{}, fmt.Errorf("phase %q: no %s species for elements %v", def.name, def.aggregate, def.elements)
		}
	default:
		return Phase{}, fmt.Errorf("phase %q has neither species nor elements", def.name)
	}

	for _, sp := range species {
		if sp.Aggregate != def.aggregate {
			return Phase{}, fmt.Errorf("phase %q: species %q is %s, expected %s",
				def.name, sp.Name, sp.Aggregate, def.aggregate)
		}
	}

	return Phase{
		Name:      def.name,
		Matter:    def.matter,
		Aggregate: def.aggregate,
		Species:   species,
		Model:     def.model,
	}, nil
}

func (s *System) collectElements() {
	seen := make(map[string]bool)
	for _, sp := range s.species {
		for sym := range sp.Elements() {
			seen[sym] = true
		}
	}
	s.elements = make([]string, 0, len(seen))
	for sym := range seen {
		s.elements = append(s.elements, sym)
	}
	sort.Strings(s.elements)
}

func (s *System) buildFormulaMatrix() {
	rows := len(s.elements) + 1
	s.a = make([][]float64, rows)
	for j := range s.a {
		s.a[j] = make([]float64, len(s.species))
	}
	for j, sym := range s.elements {
		for i, sp := range s.species {
			s.a[j][i] = sp.Elements()[sym]
		}
	}
	for i, sp := range s.species {
		s.a[rows-1][i] = sp.Charge()
	}
}

// Phases returns the system's phases.
func (s *System) Phases() []Phase { return s.phases }

// Species returns the flattened species slice across all phases.
func (s *System) Species() []chem.Species { return s.species }

// NumSpecies returns the number of species in the system.
func (s *System) NumSpecies() int { return len(s.species) }

// Elements returns the sorted element symbols present in the system.
func (s *System) Elements() []string { return s.elements }

// FormulaMatrix returns the conservation matrix: one row per element in
// Elements() order, plus a trailing charge row.
func (s *System) FormulaMatrix() [][]float64 { return s.a }

// ChargeRow returns the index of the charge row in the formula matrix.
func (s *System) ChargeRow() int { return len(s.elements) }

// IndexOfSpecies returns the flattened index of the named species.
func (s *System) IndexOfSpecies(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("species %q not in system", name)
	}
	return i, nil
}

// PhaseOfSpecies returns the phase index of the species at flattened
// index i.
func (s *System) PhaseOfSpecies(i int) int { return s.phaseOf[i] }

// PhaseWithAggregate returns the first phase in the given aggregate
// state, or an error when none exists.
func (s *System) PhaseWithAggregate(state chem.AggregateState) (Phase, error) {
	for _, p := range s.phases {
		if p.Aggregate == state {
			return p, nil
		}
	}
	return Phase{}, fmt.Errorf("system has no %s phase", state)
}
