// Package database provides thermodynamic databases for aquachem: a
// species registry with lookup by name, aggregate state and element,
// loaded from PHREEQC-format files (embedded or on disk).
package database

import (
	"fmt"
	"sort"

	"aquachem/internal/chem"
)

// Database is a registry of chemical species with their standard Gibbs
// energies on a common primary-species reference scale.
type Database struct {
	species []chem.Species
	byName  map[string]int
}

// New returns an empty database.
func New() *Database {
	return &Database{byName: make(map[string]int)}
}

// AddSpecies registers a species. Adding a second species with the same
// name is an error.
func (db *Database) AddSpecies(sp chem.Species) error {
	if _, exists := db.byName[sp.Name]; exists {
		return fmt.Errorf("species %q already registered", sp.Name)
	}
	db.byName[sp.Name] = len(db.species)
	db.species = append(db.species, sp)
	return nil
}

// Species returns all registered species in registration order.
func (db *Database) Species() []chem.Species {
	return db.species
}

// Len returns the number of registered species.
func (db *Database) Len() int { return len(db.species) }

// SpeciesWithName returns the species registered under the given name.
func (db *Database) SpeciesWithName(name string) (chem.Species, error) {
	i, ok := db.byName[name]
	if !ok {
		return chem.Species{}, fmt.Errorf("species %q not found in database", name)
	}
	return db.species[i], nil
}

// HasSpecies reports whether a species with the given name exists.
func (db *Database) HasSpecies(name string) bool {
	_, ok := db.byName[name]
	return ok
}

// SpeciesWithAggregate returns all species in the given aggregate state.
func (db *Database) SpeciesWithAggregate(state chem.AggregateState) []chem.Species {
	var out []chem.Species
	for _, sp := range db.species {
		if sp.Aggregate == state {
			out = append(out, sp)
		}
	}
	return out
}

// SpeciesWithElements returns species whose formulas contain only the
// given element symbols (used for speciation by element).
func (db *Database) SpeciesWithElements(symbols []string) []chem.Species {
	allowed := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		allowed[s] = true
	}
	var out []chem.Species
	for _, sp := range db.species {
		ok := len(sp.Elements()) > 0
		for sym := range sp.Elements() {
			if !allowed[sym] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, sp)
		}
	}
	return out
}

// Elements returns the sorted element symbols appearing in any
// registered species.
func (db *Database) Elements() []string {
	seen := make(map[string]bool)
	for _, sp := range db.species {
		for sym := range sp.Elements() {
			seen[sym] = true
		}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
