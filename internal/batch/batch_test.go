package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"
)

const waterScenario = `
phases:
  - type: aqueous
    species: "H2O H+ OH-"
    activity_model: ideal
amounts:
  - {species: H2O, value: 1.0, unit: kg}
output:
  aqueous: true
`

func writeScenario(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := "name: " + name + waterScenario
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	paths := []string{
		writeScenario(t, dir, "a.yaml"),
		writeScenario(t, dir, "b.yaml"),
		filepath.Join(dir, "missing.yaml"),
	}

	runner := NewRunner(2, nil)
	items, err := runner.RunFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("run files: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	for _, item := range items[:2] {
		if item.Err != nil {
			t.Errorf("%s: unexpected error: %v", item.Path, item.Err)
			continue
		}
		if !item.Report.Result.Converged {
			t.Errorf("%s: not converged", item.Path)
		}
		if item.Elapsed <= 0 {
			t.Errorf("%s: elapsed not recorded", item.Path)
		}
	}
	if items[2].Err == nil {
		t.Errorf("expected error for missing scenario file")
	}

	failed := Failed(items)
	if len(failed) != 1 || failed[0].Path != paths[2] {
		t.Errorf("Failed() = %v, want just the missing file", failed)
	}
}

func TestRunFiles_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	paths := []string{writeScenario(t, dir, "a.yaml")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(1, nil)
	if _, err := runner.RunFiles(ctx, paths); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
