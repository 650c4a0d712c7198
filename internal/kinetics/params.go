// Package kinetics models mineral dissolution and precipitation rates
// and integrates them against re-equilibrated aqueous chemistry. Rate
// parameters follow the transition-state form tabulated by Palandri and
// Kharaka (USGS OFR 2004-1068): parallel mechanisms with Arrhenius
// temperature scaling and optional catalyst activity powers.
package kinetics

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// Catalyst scales a mechanism rate by a species activity power.
type Catalyst struct {
	Species string  `yaml:"species"`
	Power   float64 `yaml:"power"`
}

// Mechanism is one parallel reaction mechanism of a mineral rate law.
type Mechanism struct {
	Name string `yaml:"name"`

	// LgK is log10 of the rate constant in mol/m2/s at 25 C.
	LgK float64 `yaml:"lgk"`

	// ActivationEnergy in kJ/mol drives the Arrhenius correction.
	ActivationEnergy float64 `yaml:"e"`

	Catalysts []Catalyst `yaml:"catalysts,omitempty"`

	// OmegaP and OmegaQ shape the saturation dependence
	// (1 - omega^p)^q. Zero values mean 1.
	OmegaP float64 `yaml:"p,omitempty"`
	OmegaQ float64 `yaml:"q,omitempty"`
}

// MineralParams holds the rate mechanisms of one mineral.
type MineralParams struct {
	Mechanisms []Mechanism `yaml:"mechanisms"`
}

// Params maps mineral names to their rate parameters.
type Params struct {
	Minerals map[string]MineralParams `yaml:"minerals"`
}

// DefaultParams returns the embedded Palandri-Kharaka parameter set.
func DefaultParams() (Params, error) {
	data, err := embedded.ReadFile("data/palandri_kharaka.yaml")
	if err != nil {
		return Params{}, fmt.Errorf("embedded rate parameters: %w", err)
	}
	return ParseParams(data)
}

// LoadParams reads rate parameters from a YAML file.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read rate parameters: %w", err)
	}
	p, err := ParseParams(data)
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseParams decodes rate parameters from YAML.
func ParseParams(data []byte) (Params, error) {
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse rate parameters: %w", err)
	}
	for name, mineral := range p.Minerals {
		if len(mineral.Mechanisms) == 0 {
			return Params{}, fmt.Errorf("mineral %q has no rate mechanisms", name)
		}
	}
	return p, nil
}
