package chem

import "fmt"

// AmountToMoles converts value in the given unit to moles. Mass units
// require the molar mass of the species (kg/mol).
func AmountToMoles(value float64, unit string, molarMass float64) (float64, error) {
	switch unit {
	case "", "mol":
		return value, nil
	case "mmol":
		return value * 1e-3, nil
	case "umol":
		return value * 1e-6, nil
	case "kmol":
		return value * 1e3, nil
	case "kg", "g", "mg", "ug":
		if molarMass <= 0 {
			return 0, fmt.Errorf("cannot convert %s to mol: species has no molar mass", unit)
		}
		kg := value
		switch unit {
		case "g":
			kg = value * 1e-3
		case "mg":
			kg = value * 1e-6
		case "ug":
			kg = value * 1e-9
		}
		return kg / molarMass, nil
	default:
		return 0, fmt.Errorf("unsupported amount unit %q", unit)
	}
}

// TemperatureToKelvin converts value in the given unit to kelvin.
func TemperatureToKelvin(value float64, unit string) (float64, error) {
	switch unit {
	case "", "K", "kelvin":
		return value, nil
	case "C", "celsius":
		return value + 273.15, nil
	case "F", "fahrenheit":
		return (value-32.0)/1.8 + 273.15, nil
	default:
		return 0, fmt.Errorf("unsupported temperature unit %q", unit)
	}
}

// PressureToPascal converts value in the given unit to pascal.
func PressureToPascal(value float64, unit string) (float64, error) {
	switch unit {
	case "", "Pa":
		return value, nil
	case "kPa":
		return value * 1e3, nil
	case "MPa":
		return value * 1e6, nil
	case "bar":
		return value * 1e5, nil
	case "mbar":
		return value * 1e2, nil
	case "atm":
		return value * 101325.0, nil
	default:
		return 0, fmt.Errorf("unsupported pressure unit %q", unit)
	}
}
