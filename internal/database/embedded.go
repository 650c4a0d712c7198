package database

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed databases/*.dat
var embeddedFS embed.FS

// EmbeddedNames returns the file names of the databases bundled with
// the binary, in sorted order.
func EmbeddedNames() []string {
	entries, err := embeddedFS.ReadDir("databases")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Embedded loads one of the databases bundled with the binary. The
// name is the database file name ("phreeqc.dat"); the extension may be
// omitted.
func Embedded(name string) (*Database, error) {
	f, err := embeddedFS.Open("databases/" + strings.TrimSuffix(name, ".dat") + ".dat")
	if err != nil {
		return nil, fmt.Errorf("no embedded database named %q (available: %s)",
			name, strings.Join(EmbeddedNames(), ", "))
	}
	defer f.Close()
	db, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse embedded database %q: %w", name, err)
	}
	return db, nil
}
