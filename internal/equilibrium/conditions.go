package equilibrium

import (
	"aquachem/internal/chem"
)

// Conditions holds the constraints imposed on an equilibrium
// calculation beyond the chemical state itself. Temperature and
// pressure default to the values carried by the state; component
// amounts default to the amounts implied by the state's composition.
type Conditions struct {
	temperature float64
	pressure    float64
	components  []float64
}

// NewConditions returns an empty conditions set.
func NewConditions() *Conditions {
	return &Conditions{temperature: -1, pressure: -1}
}

// SetTemperature fixes the temperature for the calculation.
func (c *Conditions) SetTemperature(value float64, unit string) error {
	t, err := chem.TemperatureToKelvin(value, unit)
	if err != nil {
		return err
	}
	c.temperature = t
	return nil
}

// SetPressure fixes the pressure for the calculation.
func (c *Conditions) SetPressure(value float64, unit string) error {
	p, err := chem.PressureToPascal(value, unit)
	if err != nil {
		return err
	}
	c.pressure = p
	return nil
}

// SetComponentAmounts overrides the conserved component amounts. The
// vector must follow the system's component ordering: one entry per
// element followed by the charge row.
func (c *Conditions) SetComponentAmounts(b []float64) {
	c.components = append([]float64(nil), b...)
}

func (c *Conditions) hasTemperature() bool { return c.temperature > 0 }
func (c *Conditions) hasPressure() bool    { return c.pressure > 0 }
