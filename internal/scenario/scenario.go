// Package scenario runs declarative geochemical calculations. A
// scenario is a YAML document naming a thermodynamic database, the
// phases of the system, the recipe amounts and the outputs to report;
// running one equilibrates the system and optionally integrates mineral
// kinetics.
package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"aquachem/internal/activity"
	"aquachem/internal/database"
	"aquachem/internal/equilibrium"
	"aquachem/internal/kinetics"
	"aquachem/internal/props"
	"aquachem/internal/system"
)

// Quantity is a value with a unit.
type Quantity struct {
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit"`
}

// PhaseSpec declares one phase of the system.
type PhaseSpec struct {
	// Type is one of aqueous, ion-exchange, mineral, gas.
	Type string `yaml:"type"`

	// Species is a space-separated species list. Aqueous phases may
	// give Elements instead to speciate from the database.
	Species  string `yaml:"species,omitempty"`
	Elements string `yaml:"elements,omitempty"`

	// ActivityModel selects the phase activity model. Aqueous phases
	// accept ideal, davies, debye-huckel and phreeqc (default);
	// ion-exchange phases accept gaines-thomas (default) and vanselow.
	ActivityModel string `yaml:"activity_model,omitempty"`

	Name string `yaml:"name,omitempty"`
}

// AmountSpec assigns an initial species amount.
type AmountSpec struct {
	Species string  `yaml:"species"`
	Value   float64 `yaml:"value"`
	Unit    string  `yaml:"unit"`
}

// MineralSpec registers a kinetically controlled mineral.
type MineralSpec struct {
	Name string  `yaml:"name"`
	Area float64 `yaml:"area"` // reactive surface, m2
}

// KineticsSpec enables kinetic integration after the initial solve.
type KineticsSpec struct {
	Duration float64       `yaml:"duration"` // s
	Steps    int           `yaml:"steps"`
	Params   string        `yaml:"params,omitempty"` // parameter file, embedded set when empty
	Minerals []MineralSpec `yaml:"minerals"`
}

// OutputSpec selects what the report includes.
type OutputSpec struct {
	Aqueous  bool     `yaml:"aqueous"`
	Exchange bool     `yaml:"exchange"`
	Species  []string `yaml:"species,omitempty"`
}

// Scenario is a declarative calculation.
type Scenario struct {
	Name string `yaml:"name"`

	// Database names an embedded database; DatabaseFile overrides it
	// with a file path.
	Database     string `yaml:"database,omitempty"`
	DatabaseFile string `yaml:"database_file,omitempty"`

	Temperature *Quantity `yaml:"temperature,omitempty"`
	Pressure    *Quantity `yaml:"pressure,omitempty"`

	Phases  []PhaseSpec  `yaml:"phases"`
	Amounts []AmountSpec `yaml:"amounts"`

	Kinetics *KineticsSpec `yaml:"kinetics,omitempty"`
	Output   OutputSpec    `yaml:"output,omitempty"`

	// Solver overrides the default solver options when non-nil. It is
	// set by the caller, not the document.
	Solver *equilibrium.Options `yaml:"-"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		s.Name = "scenario"
	}
	if s.Database == "" && s.DatabaseFile == "" {
		s.Database = "phreeqc.dat"
	}
	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %q declares no phases", s.Name)
	}
	for i, ph := range s.Phases {
		switch ph.Type {
		case "aqueous", "ion-exchange", "mineral", "gas":
		default:
			return fmt.Errorf("scenario %q phase %d: unknown type %q", s.Name, i, ph.Type)
		}
		if ph.Species == "" && ph.Elements == "" {
			return fmt.Errorf("scenario %q phase %d: no species or elements", s.Name, i)
		}
	}
	if s.Kinetics != nil && len(s.Kinetics.Minerals) == 0 {
		return fmt.Errorf("scenario %q enables kinetics without minerals", s.Name)
	}
	return nil
}

func (s *Scenario) database() (*database.Database, error) {
	if s.DatabaseFile != "" {
		return database.Load(s.DatabaseFile)
	}
	return database.Embedded(s.Database)
}

func aqueousModel(name string) (activity.Model, error) {
	switch name {
	case "", "phreeqc":
		return activity.Phreeqc(), nil
	case "debye-huckel":
		return activity.DebyeHuckel(), nil
	case "davies":
		return activity.Davies(activity.DefaultDaviesParams()), nil
	case "ideal":
		return activity.IdealAqueous(), nil
	}
	return nil, fmt.Errorf("unknown aqueous activity model %q", name)
}

func exchangeModel(name string) (activity.Model, error) {
	switch name {
	case "", "gaines-thomas":
		return activity.IonExchangeGainesThomas(), nil
	case "vanselow":
		return activity.IonExchangeVanselow(), nil
	}
	return nil, fmt.Errorf("unknown exchange activity model %q", name)
}

func (s *Scenario) phaseDefs() ([]*system.PhaseDef, error) {
	var defs []*system.PhaseDef
	for i, ph := range s.Phases {
		var def *system.PhaseDef
		switch ph.Type {
		case "aqueous":
			if ph.Elements != "" {
				def = system.AqueousPhaseFromElements(ph.Elements)
			} else {
				def = system.AqueousPhase(ph.Species)
			}
			model, err := aqueousModel(ph.ActivityModel)
			if err != nil {
				return nil, fmt.Errorf("phase %d: %w", i, err)
			}
			def.Set(model)
		case "ion-exchange":
			def = system.IonExchangePhase(ph.Species)
			model, err := exchangeModel(ph.ActivityModel)
			if err != nil {
				return nil, fmt.Errorf("phase %d: %w", i, err)
			}
			def.Set(model)
		case "mineral":
			def = system.MineralPhase(ph.Species)
		case "gas":
			def = system.GaseousPhase(ph.Species)
		}
		if ph.Name != "" {
			def.Named(ph.Name)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Report is the outcome of one scenario run.
type Report struct {
	Name   string
	Result equilibrium.Result
	State  *system.State

	Aqueous  string
	Exchange string
	Species  map[string]float64
	Samples  []kinetics.Sample
}

// Run builds the system, equilibrates it and applies kinetics when
// configured. A nil logger disables diagnostics.
func (s *Scenario) Run(ctx context.Context, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	defs, err := s.phaseDefs()
	if err != nil {
		return nil, err
	}
	sys, err := system.New(db, defs...)
	if err != nil {
		return nil, err
	}

	st := system.NewState(sys)
	if s.Temperature != nil {
		if err := st.SetTemperature(s.Temperature.Value, s.Temperature.Unit); err != nil {
			return nil, err
		}
	}
	if s.Pressure != nil {
		if err := st.SetPressure(s.Pressure.Value, s.Pressure.Unit); err != nil {
			return nil, err
		}
	}
	for _, am := range s.Amounts {
		if err := st.Set(am.Species, am.Value, am.Unit); err != nil {
			return nil, err
		}
	}

	solver, err := equilibrium.NewSolver(sys)
	if err != nil {
		return nil, err
	}
	solver.SetLogger(log)
	if s.Solver != nil {
		if err := solver.SetOptions(*s.Solver); err != nil {
			return nil, err
		}
	}

	report := &Report{Name: s.Name, State: st, Species: map[string]float64{}}

	if s.Kinetics != nil {
		params, err := s.kineticParams()
		if err != nil {
			return nil, err
		}
		path, err := kinetics.NewPath(sys, params)
		if err != nil {
			return nil, err
		}
		path.SetLogger(log)
		if s.Solver != nil {
			if err := path.SetOptions(*s.Solver); err != nil {
				return nil, err
			}
		}
		for _, m := range s.Kinetics.Minerals {
			if err := path.AddMineral(m.Name, m.Area); err != nil {
				return nil, err
			}
		}
		samples, err := path.Run(ctx, st, s.Kinetics.Duration, s.Kinetics.Steps)
		if err != nil {
			return nil, err
		}
		report.Samples = samples
	} else {
		res, err := solver.Solve(st)
		if err != nil {
			return nil, err
		}
		report.Result = res
	}

	log.Info("scenario solved",
		zap.String("scenario", s.Name),
		zap.Int("iterations", report.Result.Iterations),
		zap.Int("kinetic_samples", len(report.Samples)))

	return report, s.fillOutputs(report)
}

func (s *Scenario) kineticParams() (kinetics.Params, error) {
	if s.Kinetics.Params != "" {
		return kinetics.LoadParams(s.Kinetics.Params)
	}
	return kinetics.DefaultParams()
}

func (s *Scenario) fillOutputs(report *Report) error {
	if s.Output.Aqueous {
		aq, err := props.NewAqueous(report.State)
		if err != nil {
			return err
		}
		report.Aqueous = aq.String()
	}
	if s.Output.Exchange {
		ex, err := props.NewIonExchange(report.State)
		if err != nil {
			return err
		}
		report.Exchange = ex.String()
	}
	for _, name := range s.Output.Species {
		n, err := report.State.SpeciesAmount(name)
		if err != nil {
			return err
		}
		report.Species[name] = n
	}
	return nil
}

// String renders the report for terminal output.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", r.Name)
	if len(r.Samples) > 0 {
		last := r.Samples[len(r.Samples)-1]
		fmt.Fprintf(&b, "Kinetic path: %d samples over %.0f s, final pH %.3f\n",
			len(r.Samples), last.Time, last.PH)
		for name, n := range last.Amounts {
			fmt.Fprintf(&b, "  %-24s %14.6e mol (SI %+.3f)\n",
				name, n, last.SaturationIndex[name])
		}
	} else {
		fmt.Fprintf(&b, "Converged in %d iterations (residual %.2e)\n",
			r.Result.Iterations, r.Result.Residual)
	}
	if r.Aqueous != "" {
		b.WriteString("\nAqueous properties:\n")
		b.WriteString(r.Aqueous)
	}
	if r.Exchange != "" {
		b.WriteString("\nIon exchange properties:\n")
		b.WriteString(r.Exchange)
	}
	if len(r.Species) > 0 {
		b.WriteString("\nSpecies amounts:\n")
		for name, n := range r.Species {
			fmt.Fprintf(&b, "  %-24s %14.6e mol\n", name, n)
		}
	}
	return b.String()
}
