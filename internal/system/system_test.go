package system

import (
	"math"
	"strings"
	"testing"

	"aquachem/internal/activity"
	"aquachem/internal/chem"
	"aquachem/internal/database"
)

func testDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Embedded("phreeqc.dat")
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	return db
}

func TestNew_MixedSystem(t *testing.T) {
	db := testDB(t)
	sys, err := New(db,
		AqueousPhase("H2O Na+ Cl- H+ OH- K+ Ca+2").Set(activity.Phreeqc()),
		IonExchangePhase("CaX2 KX NaX").Set(activity.IonExchangeVanselow()),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := sys.NumSpecies(); got != 10 {
		t.Errorf("expected 10 species, got %d", got)
	}
	if len(sys.Phases()) != 2 {
		t.Errorf("expected 2 phases, got %d", len(sys.Phases()))
	}

	// Elements picked up from all phases, sorted, X included.
	want := []string{"Ca", "Cl", "H", "K", "Na", "O", "X"}
	got := sys.Elements()
	if len(got) != len(want) {
		t.Fatalf("expected elements %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected elements %v, got %v", want, got)
		}
	}

	// Formula matrix: CaX2 column has Ca=1, X=2, charge 0.
	i, err := sys.IndexOfSpecies("CaX2")
	if err != nil {
		t.Fatalf("IndexOfSpecies failed: %v", err)
	}
	a := sys.FormulaMatrix()
	elem := map[string]int{}
	for j, sym := range sys.Elements() {
		elem[sym] = j
	}
	if a[elem["Ca"]][i] != 1 || a[elem["X"]][i] != 2 || a[sys.ChargeRow()][i] != 0 {
		t.Errorf("unexpected CaX2 formula matrix column")
	}
}

func TestNew_UnknownSpecies(t *testing.T) {
	db := testDB(t)
	_, err := New(db, AqueousPhase("H2O Xx+"))
	if err == nil {
		t.Fatal("expected error for unknown species")
	}
	if !strings.Contains(err.Error(), "Xx+") {
		t.Errorf("error should name the species, got: %v", err)
	}
}

func TestNew_Speciation(t *testing.T) {
	db := testDB(t)
	sys, err := New(db, AqueousPhaseFromElements("Na Cl"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, name := range []string{"H2O", "H+", "OH-", "Na+", "Cl-"} {
		if _, err := sys.IndexOfSpecies(name); err != nil {
			t.Errorf("expected species %q in speciated aqueous phase", name)
		}
	}
	// No exchange or mineral species in an aqueous speciation.
	if _, err := sys.IndexOfSpecies("NaX"); err == nil {
		t.Error("NaX should not appear in an aqueous phase")
	}
	if _, err := sys.IndexOfSpecies("Halite"); err == nil {
		t.Error("Halite should not appear in an aqueous phase")
	}
}

func TestNew_DuplicatePhaseNames(t *testing.T) {
	db := testDB(t)
	sys, err := New(db,
		MineralPhase("Calcite"),
		MineralPhase("Calcite").Named("Calcite"),
	)
	if err == nil {
		// Same species twice is rejected instead.
		t.Fatal("expected duplicate species error")
	}
	_ = sys

	sys, err = New(db,
		MineralPhase("Calcite"),
		MineralPhase("Aragonite").Named("Calcite"),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if sys.Phases()[1].Name != "Calcite!2" {
		t.Errorf("expected disambiguated phase name Calcite!2, got %q", sys.Phases()[1].Name)
	}
}

func TestState_SetAndComponents(t *testing.T) {
	db := testDB(t)
	sys, err := New(db, AqueousPhase("H2O Na+ Cl- H+ OH-"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	st := NewState(sys)
	if st.Temperature() != chem.StandardTemperature {
		t.Errorf("expected default T=298.15, got %v", st.Temperature())
	}

	if err := st.SetTemperature(25, "celsius"); err != nil {
		t.Fatalf("SetTemperature failed: %v", err)
	}
	if err := st.SetPressure(1, "atm"); err != nil {
		t.Fatalf("SetPressure failed: %v", err)
	}
	if err := st.Set("H2O", 1.0, "kg"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("Na+", 1.2, "mmol"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("Cl-", 1.2, "mmol"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	na, err := st.ElementAmount("Na")
	if err != nil {
		t.Fatalf("ElementAmount failed: %v", err)
	}
	if math.Abs(na-1.2e-3) > 1e-12 {
		t.Errorf("expected n(Na)=1.2e-3, got %v", na)
	}

	// Equal Na+ and Cl- leave the state essentially charge balanced.
	if q := st.Charge(); math.Abs(q) > 1e-12 {
		t.Errorf("expected ~zero net charge, got %v", q)
	}

	if err := st.Set("Na+", -1, "mol"); err == nil {
		t.Error("expected error for negative amount")
	}
	if err := st.Set("Kr+", 1, "mol"); err == nil {
		t.Error("expected error for species not in system")
	}
}

func TestProps_Activities(t *testing.T) {
	db := testDB(t)
	sys, err := New(db, AqueousPhase("H2O Na+ Cl- H+ OH-"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	st := NewState(sys)
	if err := st.Set("H2O", 1.0, "kg"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("Na+", 0.1, "mol"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set("Cl-", 0.1, "mol"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	props, err := st.Props()
	if err != nil {
		t.Fatalf("Props failed: %v", err)
	}
	a, err := props.SpeciesActivity("Na+")
	if err != nil {
		t.Fatalf("SpeciesActivity failed: %v", err)
	}
	// Ideal molality 0.1; the ideal aqueous default applies no gamma.
	if math.Abs(a-0.1) > 1e-9 {
		t.Errorf("expected a(Na+)~0.1, got %v", a)
	}
}
