package activity

import (
	"fmt"
	"math"
)

// Debye-Hueckel limiting-law parameters for water at 25 C.
const (
	debyeHuckelA = 0.5095 // (kg/mol)^1/2
	debyeHuckelB = 0.3284 // (kg/mol)^1/2 / angstrom
)

// DaviesParams parameterizes the Davies activity model.
type DaviesParams struct {
	BIons     float64 // linear coefficient for charged species
	BNeutrals float64 // Setchenow-style coefficient for neutral solutes
}

// DefaultDaviesParams returns the conventional Davies parameters.
func DefaultDaviesParams() DaviesParams {
	return DaviesParams{BIons: 0.3, BNeutrals: 0.1}
}

// daviesLog10Gamma evaluates the Davies equation for a species with
// charge z at ionic strength ionic.
func daviesLog10Gamma(z, ionic float64) float64 {
	sqrtI := math.Sqrt(ionic)
	return -debyeHuckelA * z * z * (sqrtI/(1+sqrtI) - 0.3*ionic)
}

// wateqLog10Gamma evaluates the WATEQ Debye-Hueckel equation with ion
// size a (angstrom) and linear coefficient b.
func wateqLog10Gamma(z, a, b, ionic float64) float64 {
	sqrtI := math.Sqrt(ionic)
	return -debyeHuckelA*z*z*sqrtI/(1+debyeHuckelB*a*sqrtI) + b*ionic
}

// Davies returns the Davies aqueous activity model with the given
// parameters.
func Davies(params DaviesParams) Model {
	return func(in Input, out *Props) error {
		iw := WaterIndex(in.Species)
		if iw < 0 {
			return fmt.Errorf("aqueous activity model requires H2O in the phase")
		}
		aqueousIdealPart(in, iw, out)
		ionic := IonicStrength(in, iw)
		sqrtI := math.Sqrt(ionic)
		for i, sp := range in.Species {
			if i == iw {
				continue
			}
			z := sp.Charge()
			var lg float64
			if z != 0 {
				lg = -debyeHuckelA * z * z * (sqrtI/(1+sqrtI) - params.BIons*ionic)
			} else {
				lg = params.BNeutrals * ionic
			}
			out.LnGamma[i] = lg * math.Ln10
			out.LnActivity[i] += out.LnGamma[i]
		}
		return nil
	}
}

// DebyeHuckel returns the WATEQ Debye-Hueckel aqueous model using the
// per-species ion size and b parameters carried by the database. Species
// without parameters fall back to the Davies equation; neutral solutes
// use a Setchenow term with coefficient 0.1.
func DebyeHuckel() Model {
	return func(in Input, out *Props) error {
		iw := WaterIndex(in.Species)
		if iw < 0 {
			return fmt.Errorf("aqueous activity model requires H2O in the phase")
		}
		aqueousIdealPart(in, iw, out)
		ionic := IonicStrength(in, iw)
		for i, sp := range in.Species {
			if i == iw {
				continue
			}
			z := sp.Charge()
			var lg float64
			switch {
			case z == 0:
				lg = 0.1 * ionic
			case sp.IonSize > 0:
				lg = wateqLog10Gamma(z, sp.IonSize, sp.BDot, ionic)
			default:
				lg = daviesLog10Gamma(z, ionic)
			}
			out.LnGamma[i] = lg * math.Ln10
			out.LnActivity[i] += out.LnGamma[i]
		}
		return nil
	}
}

// Phreeqc returns the aqueous activity model PHREEQC applies with its
// standard databases: WATEQ Debye-Hueckel where -gamma parameters exist,
// Davies otherwise.
func Phreeqc() Model {
	return DebyeHuckel()
}
