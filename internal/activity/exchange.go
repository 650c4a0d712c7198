package activity

import "fmt"

// exchangeWeights returns the per-species weights for an ion exchange
// phase: 1 for the mole fraction convention, or the number of exchanger
// sites (the X coefficient) for the equivalent fraction convention.
func exchangeWeights(in Input, equivalents bool) ([]float64, error) {
	w := make([]float64, len(in.Species))
	for i, sp := range in.Species {
		sites := sp.Elements()["X"]
		if sites <= 0 {
			return nil, fmt.Errorf("species %q carries no exchanger sites", sp.Name)
		}
		if equivalents {
			w[i] = sites
		} else {
			w[i] = 1
		}
	}
	return w, nil
}

// IonExchangeVanselow returns the Vanselow ion exchange model: the
// activity of an exchange species is its mole fraction on the exchanger.
func IonExchangeVanselow() Model {
	return func(in Input, out *Props) error {
		w, err := exchangeWeights(in, false)
		if err != nil {
			return err
		}
		fractionIdealPart(in, w, out)
		return nil
	}
}

// IonExchangeGainesThomas returns the Gaines-Thomas ion exchange model:
// the activity of an exchange species is its equivalent fraction.
func IonExchangeGainesThomas() Model {
	return func(in Input, out *Props) error {
		w, err := exchangeWeights(in, true)
		if err != nil {
			return err
		}
		fractionIdealPart(in, w, out)
		return nil
	}
}
