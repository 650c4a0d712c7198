package kinetics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"aquachem/internal/database"
	"aquachem/internal/equilibrium"
	"aquachem/internal/system"
)

func calciteSystem(t *testing.T) *system.System {
	t.Helper()
	db, err := database.Embedded("phreeqc.dat")
	if err != nil {
		t.Fatalf("load embedded database: %v", err)
	}
	sys, err := system.New(db,
		system.AqueousPhase("H2O H+ OH- Ca+2 CO3-2 HCO3- CO2 CaCO3 CaHCO3+ CaOH+"),
		system.MineralPhase("Calcite"),
	)
	if err != nil {
		t.Fatalf("build system: %v", err)
	}
	return sys
}

func TestDefaultParams(t *testing.T) {
	params, err := DefaultParams()
	require.NoError(t, err)

	calcite, ok := params.Minerals["Calcite"]
	require.True(t, ok, "default params missing Calcite")
	require.GreaterOrEqual(t, len(calcite.Mechanisms), 2)

	var acid *Mechanism
	for i := range calcite.Mechanisms {
		if calcite.Mechanisms[i].Name == "acid" {
			acid = &calcite.Mechanisms[i]
		}
	}
	require.NotNil(t, acid, "calcite has no acid mechanism")
	require.Len(t, acid.Catalysts, 1)
	require.Equal(t, "H+", acid.Catalysts[0].Species)
	require.InDelta(t, -0.30, acid.LgK, 1e-12)
}

func TestParseParams_NoMechanisms(t *testing.T) {
	_, err := ParseParams([]byte("minerals:\n  Quartz:\n    mechanisms: []\n"))
	if err == nil {
		t.Errorf("expected error for mineral without mechanisms")
	}
}

func TestLoadParams_Missing(t *testing.T) {
	if _, err := LoadParams("no/such/params.yaml"); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestRate_ValueAtEquilibrium(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	rate, err := NewRate(sys, "Calcite", params)
	if err != nil {
		t.Fatalf("new rate: %v", err)
	}

	st := system.NewState(sys)
	if err := st.Set("H2O", 1.0, "kg"); err != nil {
		t.Fatalf("set water: %v", err)
	}
	pr, err := st.Props()
	if err != nil {
		t.Fatalf("props: %v", err)
	}
	if v := rate.Value(pr, 298.15, 0, 1.0); v != 0 {
		t.Errorf("rate at saturation = %v, want 0", v)
	}
	if v := rate.Value(pr, 298.15, -10, 1.0); v <= 0 {
		t.Errorf("rate when undersaturated = %v, want dissolution (positive)", v)
	}
}

func TestNewRate_Unknown(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	if _, err := NewRate(sys, "Dolomite", params); err == nil {
		t.Errorf("expected error for mineral outside the system")
	}
}

func TestPath_CalciteDissolution(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	path, err := NewPath(sys, params)
	if err != nil {
		t.Fatalf("new path: %v", err)
	}
	if err := path.AddMineral("Calcite", 1.0); err != nil {
		t.Fatalf("add mineral: %v", err)
	}

	st := system.NewState(sys)
	if err := st.Set("H2O", 1.0, "kg"); err != nil {
		t.Fatalf("set water: %v", err)
	}
	if err := st.Set("Calcite", 10, "mmol"); err != nil {
		t.Fatalf("set calcite: %v", err)
	}

	samples, err := path.Run(context.Background(), st, 1000, 10)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(samples) != 11 {
		t.Fatalf("len(samples) = %d, want 11", len(samples))
	}
	if got := samples[10].Time; math.Abs(got-1000) > 1e-9 {
		t.Errorf("final time = %v, want 1000", got)
	}

	if si := samples[0].SaturationIndex["Calcite"]; si > -3 {
		t.Errorf("initial SI = %v, want strongly undersaturated", si)
	}
	if si := samples[10].SaturationIndex["Calcite"]; math.Abs(si) > 0.5 {
		t.Errorf("final SI = %v, want near saturation", si)
	}

	dissolved := 0.01 - samples[10].Amounts["Calcite"]
	if dissolved < 1e-5 || dissolved > 1e-3 {
		t.Errorf("dissolved calcite = %.3e mol, want order 1e-4", dissolved)
	}
	if ph := samples[10].PH; ph < 8.5 || ph > 11 {
		t.Errorf("final pH = %v, want alkaline", ph)
	}

	// The carried totals absorb the per-step solver residual, so
	// conservation along the path is looser than a single solve.
	ca, err := st.ElementAmount("Ca")
	if err != nil {
		t.Fatalf("element amount: %v", err)
	}
	if math.Abs(ca-0.01)/0.01 > 1e-5 {
		t.Errorf("total Ca = %v mol, want conserved at 0.01", ca)
	}
}

func TestPath_ContextCancelled(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	path, err := NewPath(sys, params)
	if err != nil {
		t.Fatalf("new path: %v", err)
	}
	if err := path.AddMineral("Calcite", 1.0); err != nil {
		t.Fatalf("add mineral: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := system.NewState(sys)
	if _, err := path.Run(ctx, st, 100, 5); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPath_Validation(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	path, err := NewPath(sys, params)
	if err != nil {
		t.Fatalf("new path: %v", err)
	}

	st := system.NewState(sys)
	if _, err := path.Run(context.Background(), st, 100, 5); err == nil {
		t.Errorf("expected error for path without minerals")
	}
	if err := path.AddMineral("Calcite", 0); err == nil {
		t.Errorf("expected error for zero surface area")
	}
	if err := path.AddMineral("Calcite", 1.0); err != nil {
		t.Fatalf("add mineral: %v", err)
	}
	if _, err := path.Run(context.Background(), st, 0, 5); err == nil {
		t.Errorf("expected error for zero duration")
	}
	if _, err := path.Run(context.Background(), st, 100, 0); err == nil {
		t.Errorf("expected error for zero steps")
	}
}

func TestPath_SetOptions(t *testing.T) {
	sys := calciteSystem(t)
	params, err := DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	path, err := NewPath(sys, params)
	if err != nil {
		t.Fatalf("new path: %v", err)
	}

	opts := equilibrium.DefaultOptions()
	opts.Epsilon = 1e-12
	if err := path.SetOptions(opts); err != nil {
		t.Fatalf("SetOptions rejected a tight tolerance: %v", err)
	}
	opts.Epsilon = 0
	if err := path.SetOptions(opts); err == nil {
		t.Error("expected error for zero epsilon")
	}
}
