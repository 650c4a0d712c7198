package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Solver.Epsilon <= 0 || cfg.Solver.MaxIterations <= 0 {
		t.Errorf("defaults not applied: %+v", cfg.Solver)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Batch.Concurrency)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/runs.db"
	cfg.Solver.MaxIterations = 77
	cfg.Logging.Verbose = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AQUACHEM_DB", "/data/archive.db")
	t.Setenv("AQUACHEM_CONCURRENCY", "9")
	t.Setenv("AQUACHEM_VERBOSE", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Path != "/data/archive.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Batch.Concurrency != 9 || !cfg.Logging.Verbose {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  epsilon: -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected validation error for negative epsilon")
	}

	if err := os.WriteFile(path, []byte("solver: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected parse error for malformed yaml")
	}
}

func TestSolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Epsilon = 1e-7
	cfg.Solver.MaxIterations = 33
	opts := cfg.SolverOptions()
	if opts.Epsilon != 1e-7 || opts.MaxIterations != 33 {
		t.Errorf("options = %+v", opts)
	}
}
