package props

import (
	"math"
	"strings"
	"testing"

	"aquachem/internal/database"
	"aquachem/internal/equilibrium"
	"aquachem/internal/system"
)

// exchangeState equilibrates a Na/K/Ca chloride solution against a
// partially sodium-loaded exchanger.
func exchangeState(t *testing.T) *system.State {
	t.Helper()
	db, err := database.Embedded("phreeqc.dat")
	if err != nil {
		t.Fatalf("load embedded database: %v", err)
	}
	sys, err := system.New(db,
		system.AqueousPhase("H2O H+ OH- Na+ K+ Ca+2 Cl- CaOH+"),
		system.IonExchangePhase("NaX KX CaX2"),
	)
	if err != nil {
		t.Fatalf("build system: %v", err)
	}
	st := system.NewState(sys)
	for _, set := range []struct {
		name string
		mmol float64
	}{
		{"Na+", 1.0}, {"K+", 0.2}, {"Ca+2", 0.5}, {"Cl-", 2.2}, {"NaX", 1.0},
	} {
		if err := st.Set(set.name, set.mmol, "mmol"); err != nil {
			t.Fatalf("set %s: %v", set.name, err)
		}
	}
	if err := st.Set("H2O", 1.0, "kg"); err != nil {
		t.Fatalf("set water: %v", err)
	}
	solver, err := equilibrium.NewSolver(sys)
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	res, err := solver.Solve(st)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("not converged: %+v", res)
	}
	return st
}

func TestAqueous_Properties(t *testing.T) {
	st := exchangeState(t)
	aq, err := NewAqueous(st)
	if err != nil {
		t.Fatalf("aqueous props: %v", err)
	}

	if ionic := aq.IonicStrength(); ionic <= 0 || ionic > 0.01 {
		t.Errorf("ionic strength = %v, want small positive", ionic)
	}
	ph, err := aq.PH()
	if err != nil {
		t.Fatalf("pH: %v", err)
	}
	if ph < 6 || ph > 8 {
		t.Errorf("pH = %.2f, want near neutral", ph)
	}
	// No redox couple in the system, so pE falls back to the default.
	if pe := aq.PE(); pe != 4.0 {
		t.Errorf("pE = %v, want default 4", pe)
	}

	cl, err := aq.ElementMolality("Cl")
	if err != nil {
		t.Fatalf("element molality: %v", err)
	}
	if math.Abs(cl-2.2e-3)/2.2e-3 > 1e-3 {
		t.Errorf("molality of Cl = %v, want about 2.2e-3", cl)
	}

	na, err := aq.SpeciesMolality("Na+")
	if err != nil {
		t.Fatalf("species molality: %v", err)
	}
	if na <= 1e-5 || na >= 2e-3 {
		t.Errorf("molality of Na+ = %v, want between trace and total", na)
	}

	if _, err := aq.SpeciesMolality("H2O"); err == nil {
		t.Errorf("expected error for solvent molality")
	}
	if _, err := aq.SpeciesMolality("CO3-2"); err == nil {
		t.Errorf("expected error for species outside the phase")
	}

	report := aq.String()
	for _, want := range []string{"pH", "Ionic Strength", "Na+"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestIonExchange_Properties(t *testing.T) {
	st := exchangeState(t)
	ex, err := NewIonExchange(st)
	if err != nil {
		t.Fatalf("exchange props: %v", err)
	}

	if total := ex.TotalEquivalents(); math.Abs(total-1e-3)/1e-3 > 1e-6 {
		t.Errorf("total equivalents = %v, want 1e-3", total)
	}

	var sum float64
	for _, name := range []string{"NaX", "KX", "CaX2"} {
		beta, err := ex.EquivalentFraction(name)
		if err != nil {
			t.Fatalf("fraction of %s: %v", name, err)
		}
		if beta <= 0 || beta >= 1 {
			t.Errorf("fraction of %s = %v, want in (0,1)", name, beta)
		}
		sum += beta
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("fractions sum to %v, want 1", sum)
	}

	n, err := ex.SpeciesAmount("CaX2")
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	eq, err := ex.SpeciesEquivalents("CaX2")
	if err != nil {
		t.Fatalf("equivalents: %v", err)
	}
	if math.Abs(eq-2*n) > 1e-15 {
		t.Errorf("equivalents of CaX2 = %v, want twice its amount %v", eq, n)
	}

	if _, err := ex.SpeciesAmount("MgX2"); err == nil {
		t.Errorf("expected error for species outside the phase")
	}
	if !strings.Contains(ex.String(), "Total Equivalents") {
		t.Errorf("report missing header:\n%s", ex.String())
	}
}

func TestProps_MissingPhases(t *testing.T) {
	db, err := database.Embedded("phreeqc.dat")
	if err != nil {
		t.Fatalf("load embedded database: %v", err)
	}
	sys, err := system.New(db, system.MineralPhase("Calcite"))
	if err != nil {
		t.Fatalf("build system: %v", err)
	}
	st := system.NewState(sys)

	if _, err := NewAqueous(st); err == nil {
		t.Errorf("expected error for system without aqueous phase")
	}
	if _, err := NewIonExchange(st); err == nil {
		t.Errorf("expected error for system without exchange phase")
	}
}
