package equilibrium

import (
	"fmt"

	"aquachem/internal/system"
)

// Restrictions constrains how individual species may react during an
// equilibrium calculation.
type Restrictions struct {
	sys   *system.System
	lower map[int]float64
	upper map[int]float64
	inert map[int]bool
}

// NewRestrictions returns an empty restriction set for the system.
func NewRestrictions(sys *system.System) *Restrictions {
	return &Restrictions{
		sys:   sys,
		lower: map[int]float64{},
		upper: map[int]float64{},
		inert: map[int]bool{},
	}
}

// CannotReact freezes the amount of the named species at its current
// value in the state being equilibrated.
func (r *Restrictions) CannotReact(name string) error {
	i, err := r.index(name)
	if err != nil {
		return err
	}
	r.inert[i] = true
	return nil
}

// CannotDecreaseBelow keeps the species amount at or above the given
// number of moles.
func (r *Restrictions) CannotDecreaseBelow(name string, moles float64) error {
	i, err := r.index(name)
	if err != nil {
		return err
	}
	r.lower[i] = moles
	return nil
}

// CannotIncreaseAbove keeps the species amount at or below the given
// number of moles.
func (r *Restrictions) CannotIncreaseAbove(name string, moles float64) error {
	i, err := r.index(name)
	if err != nil {
		return err
	}
	r.upper[i] = moles
	return nil
}

func (r *Restrictions) index(name string) (int, error) {
	i, err := r.sys.IndexOfSpecies(name)
	if err != nil {
		return 0, fmt.Errorf("restrictions: %w", err)
	}
	return i, nil
}
