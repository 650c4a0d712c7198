// Package activity provides activity models for aquachem phases. A model
// evaluates species activity coefficients and activities for one phase at
// given temperature, pressure and composition, together with the ideal
// part of the activity sensitivities used by the equilibrium solver.
package activity

import (
	"fmt"
	"math"

	"aquachem/internal/chem"
)

// Input is the evaluation context for one phase.
type Input struct {
	T       float64 // K
	P       float64 // Pa
	Species []chem.Species
	Amounts []float64 // mol, same order as Species
}

// Props holds the evaluated activity properties of one phase.
//
// Ddn is the ideal part of d ln(a_i) / d ln(n_k) within the phase; the
// activity-coefficient contribution is treated as composition-lagged by
// the solver (successive substitution on gamma).
type Props struct {
	LnGamma    []float64
	LnActivity []float64
	Ddn        [][]float64
}

// NewProps allocates properties for a phase with n species.
func NewProps(n int) *Props {
	p := &Props{
		LnGamma:    make([]float64, n),
		LnActivity: make([]float64, n),
		Ddn:        make([][]float64, n),
	}
	for i := range p.Ddn {
		p.Ddn[i] = make([]float64, n)
	}
	return p
}

// Model evaluates activity properties for one phase.
type Model func(in Input, out *Props) error

// amountFloor guards logarithms against species driven to zero. Trace
// redox species can sit far below any physical amount, so the guard is
// well under the solver's smallest iterate.
const amountFloor = 1e-160

func safeAmount(n float64) float64 {
	if n < amountFloor {
		return amountFloor
	}
	return n
}

// WaterIndex returns the index of the water solvent within the species
// slice, or -1 when absent.
func WaterIndex(species []chem.Species) int {
	for i, sp := range species {
		e := sp.Elements()
		if sp.Charge() == 0 && len(e) == 2 && e["H"] == 2 && e["O"] == 1 {
			return i
		}
	}
	return -1
}

// molalities computes solute molalities (mol/kgw) and the solvent
// mass. The solvent mass uses the species' own molar mass so that
// amounts set by mass convert back without drift.
func molalities(in Input, iw int) ([]float64, float64) {
	kgw := safeAmount(in.Amounts[iw]) * in.Species[iw].MolarMass()
	m := make([]float64, len(in.Species))
	for i := range in.Species {
		if i == iw {
			continue
		}
		m[i] = safeAmount(in.Amounts[i]) / kgw
	}
	return m, kgw
}

// IonicStrength computes I = 1/2 sum(m_i z_i^2) in mol/kgw for an
// aqueous phase composition.
func IonicStrength(in Input, iw int) float64 {
	m, _ := molalities(in, iw)
	var ionic float64
	for i, sp := range in.Species {
		if i == iw {
			continue
		}
		z := sp.Charge()
		ionic += m[i] * z * z
	}
	return 0.5 * ionic
}

// aqueousIdealPart fills the ideal activities and sensitivities of an
// aqueous phase: solutes on the molality scale, water on the mole
// fraction scale. Gamma terms are added by the caller.
func aqueousIdealPart(in Input, iw int, out *Props) {
	m, _ := molalities(in, iw)
	var total float64
	for _, n := range in.Amounts {
		total += safeAmount(n)
	}
	xw := safeAmount(in.Amounts[iw]) / total

	for i := range in.Species {
		if i == iw {
			out.LnActivity[i] = math.Log(xw)
			for k := range in.Species {
				out.Ddn[i][k] = -safeAmount(in.Amounts[k]) / total
			}
			out.Ddn[i][iw] += 1
			continue
		}
		out.LnActivity[i] = math.Log(m[i])
		for k := range in.Species {
			out.Ddn[i][k] = 0
		}
		out.Ddn[i][i] = 1
		out.Ddn[i][iw] = -1
	}
}

// fractionIdealPart fills activities and sensitivities for a phase on
// the (weighted) mole fraction scale: a_i = w_i n_i / sum(w_k n_k).
func fractionIdealPart(in Input, weights []float64, out *Props) {
	var total float64
	for i, n := range in.Amounts {
		total += weights[i] * safeAmount(n)
	}
	for i := range in.Species {
		xi := weights[i] * safeAmount(in.Amounts[i]) / total
		out.LnActivity[i] = math.Log(xi)
		for k := range in.Species {
			out.Ddn[i][k] = -weights[k] * safeAmount(in.Amounts[k]) / total
		}
		out.Ddn[i][i] += 1
	}
}

func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// IdealAqueous returns the ideal aqueous activity model: unit activity
// coefficients, solute activities on the molality scale, water activity
// equal to its mole fraction.
func IdealAqueous() Model {
	return func(in Input, out *Props) error {
		iw := WaterIndex(in.Species)
		if iw < 0 {
			return fmt.Errorf("aqueous activity model requires H2O in the phase")
		}
		aqueousIdealPart(in, iw, out)
		return nil
	}
}

// IdealSolution returns the ideal solution model: activity equals mole
// fraction. A single-species phase therefore has unit activity.
func IdealSolution() Model {
	return func(in Input, out *Props) error {
		fractionIdealPart(in, unitWeights(len(in.Species)), out)
		return nil
	}
}

// IdealGas returns the ideal gas model: activity is the species partial
// pressure in bar.
func IdealGas() Model {
	return func(in Input, out *Props) error {
		fractionIdealPart(in, unitWeights(len(in.Species)), out)
		lnP := math.Log(in.P / 1e5)
		for i := range in.Species {
			out.LnActivity[i] += lnP
		}
		return nil
	}
}
