package main

import (
	"testing"

	"aquachem/internal/chem"
)

func TestCommandRegistration(t *testing.T) {
	want := map[string]bool{"run": false, "batch": false, "db": false, "runs": false, "watch": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestParseAggregate(t *testing.T) {
	agg, err := parseAggregate("exchange")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if agg != chem.AggregateExchange {
		t.Errorf("agg = %v", agg)
	}
	if _, err := parseAggregate("plasma"); err == nil {
		t.Errorf("expected error for unknown aggregate")
	}
}
