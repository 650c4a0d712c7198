package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openStore(t)

	saved, err := s.Save(Run{
		Scenario:   "brine-exchanger",
		Source:     "scenarios/brine.yaml",
		Report:     "Scenario: brine-exchanger\n",
		Converged:  true,
		Iterations: 23,
		Residual:   3.2e-12,
		Elapsed:    42 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("save did not assign an id")
	}

	got, err := s.Get(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Scenario != "brine-exchanger" || !got.Converged || got.Iterations != 23 {
		t.Errorf("got %+v", got)
	}
	if got.Elapsed != 42*time.Millisecond {
		t.Errorf("elapsed = %v, want 42ms", got.Elapsed)
	}

	if _, err := s.Get("no-such-id"); err == nil {
		t.Errorf("expected error for unknown id")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Save(Run{
			Scenario:  "s",
			Report:    "r",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	runs, err := s.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if !runs[0].CreatedAt.After(runs[1].CreatedAt) {
		t.Errorf("not newest first: %v then %v", runs[0].CreatedAt, runs[1].CreatedAt)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openStore(t)

	saved, err := s.Save(Run{Scenario: "s", Report: "r"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(saved.ID); err == nil {
		t.Errorf("expected error deleting twice")
	}
}
